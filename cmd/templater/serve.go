package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/touchstone-templates/pkg/api"
	"github.com/hazyhaar/touchstone-templates/pkg/chassis"
	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/store"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

The session starts from the vocabularies of the latest stored run of each
kind, so ids stay compatible with batch output. SIGHUP reloads them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				e.cfg.Addr = addr
			}
			if q, _ := cmd.Flags().GetBool("quic"); q {
				e.cfg.QUIC = true
			}
			return runServe(e)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	cmd.Flags().Bool("quic", false, "Serve HTTPS, HTTP/3 and MCP over QUIC")
	return cmd
}

func runServe(e *env) error {
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	failures, err := e.openFailureLog()
	if err != nil {
		return err
	}
	defer failures.Close()

	sess := corpus.NewSession(e.lex, e.cfg.CacheSize, failures)
	restoreVocabularies(context.Background(), e, st, sess)

	router := api.NewRouter(sess, e.logger)

	// SIGHUP: reload vocabularies from the store.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for range sighup {
			e.logger.Info("SIGHUP received, reloading vocabularies")
			restoreVocabularies(ctx, e, st, sess)
		}
	}()

	if e.cfg.QUIC {
		mcpSrv := server.NewMCPServer("templater", version, server.WithToolCapabilities(false))
		api.RegisterMCPTools(mcpSrv, sess, e.logger)
		ch, err := chassis.New(chassis.Config{
			Addr:      e.cfg.Addr,
			CertFile:  e.cfg.TLSCert,
			KeyFile:   e.cfg.TLSKey,
			Handler:   router,
			MCPServer: mcpSrv,
			Logger:    e.logger,
		})
		if err != nil {
			return err
		}
		return ch.Run(ctx)
	}

	srv := &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		e.logger.Info("templater listening", "addr", e.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	e.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// restoreVocabularies loads the vocabulary of the latest run of each kind
// into sess. Kinds without a stored run keep their current vocabulary.
func restoreVocabularies(ctx context.Context, e *env, st *store.Store, sess *corpus.Session) {
	for _, kind := range []corpus.Kind{corpus.KindEmail, corpus.KindDomain} {
		run, err := st.LatestRun(ctx, kind)
		if errors.Is(err, store.ErrRunNotFound) {
			continue
		}
		if err != nil {
			e.logger.Error("latest run", "kind", kind, "error", err)
			continue
		}
		v, err := st.LoadVocabulary(ctx, run.ID)
		if err != nil {
			e.logger.Error("load vocabulary", "run", run.ID, "error", err)
			continue
		}
		if err := sess.Restore(kind, v); err != nil {
			e.logger.Error("restore vocabulary", "kind", kind, "error", err)
			continue
		}
		e.logger.Info("vocabulary restored", "kind", kind, "run", run.ID, "tokens", v.Len())
	}
}
