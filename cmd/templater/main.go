package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/store"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "templater",
		Short: "Email and domain template encoder",
		Long: `templater learns how organizations build email addresses.

It tokenizes email local-parts against full names and domain roots against
firm names, assigns the tokens dense vocabulary ids, and writes the id
sequences in SPMF format for sequential pattern mining.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "templater.yaml", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newMCPCmd(),
		newEncodeCmd(),
		newRunsCmd(),
		newDecodeCmd(),
		newRulesCmd(),
		newRenderCmd(),
		newLexiconCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput(cmd) {
				printJSON(cmd, map[string]string{"version": version})
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "templater version %s\n", version)
		},
	}
}

// env is what every command needs: configuration, a logger and the lexicon.
type env struct {
	cfg    config
	logger *slog.Logger
	lex    *lexicon.Lexicon
}

func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	override, _ := cmd.Flags().GetString("log-level")

	boot := newLogger(override, cmd.ErrOrStderr())
	cfg, err := loadConfig(path, boot)
	if err != nil {
		return nil, err
	}
	if override != "" {
		cfg.LogLevel = override
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())

	lex, err := lexicon.Load(cfg.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	logger.Debug("lexicon loaded", "id", lex.Manifest.ID, "version", lex.Manifest.Version)
	return &env{cfg: cfg, logger: logger, lex: lex}, nil
}

func (e *env) openStore() (*store.Store, error) {
	st, err := store.Open(e.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("store opened", "path", e.cfg.DBPath)
	return st, nil
}

func (e *env) openFailureLog() (*corpus.FailureLog, error) {
	return corpus.OpenFailureLog(e.cfg.FailureLog)
}

func (e *env) lexiconTag() string {
	return e.lex.Manifest.ID + "@" + e.lex.Manifest.Version
}
