package main

import (
	"context"

	"github.com/hazyhaar/touchstone-templates/pkg/api"
	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the template tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
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

			srv := server.NewMCPServer("templater", version, server.WithToolCapabilities(false))
			api.RegisterMCPTools(srv, sess, e.logger)

			e.logger.Info("mcp server on stdio")
			return server.ServeStdio(srv)
		},
	}
}
