package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/ingest"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a CSV batch into templates and an SPMF corpus",
	}
	cmd.PersistentFlags().String("out", "", "SPMF output path (default: <input>.spmf)")
	cmd.PersistentFlags().String("vocab", "", "Also write the vocabulary as gob to this path")
	cmd.PersistentFlags().Bool("no-store", false, "Do not record the run in the database")
	cmd.PersistentFlags().String("format", "", "CSV format YAML (overrides config)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "people <csv>",
			Short: "Encode email local-parts against full names (columns: name, email, optional firm)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEncode(cmd, corpus.KindEmail, args[0])
			},
		},
		&cobra.Command{
			Use:   "firms <csv>",
			Short: "Encode domain roots against firm names (columns: firm, domain)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEncode(cmd, corpus.KindDomain, args[0])
			},
		},
	)
	return cmd
}

func runEncode(cmd *cobra.Command, kind corpus.Kind, input string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	formatPath, _ := cmd.Flags().GetString("format")
	if formatPath == "" {
		formatPath = e.cfg.FormatPath
	}
	format := ingest.DefaultFormat()
	if formatPath != "" {
		if format, err = ingest.LoadFormat(formatPath); err != nil {
			return err
		}
	}

	failures, err := e.openFailureLog()
	if err != nil {
		return err
	}
	defer failures.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := corpus.NewEncoder(e.lex, corpus.Options{
		Workers:   e.cfg.Workers,
		CacheSize: e.cfg.CacheSize,
		Logger:    e.logger,
		Failures:  failures,
	})

	var res *corpus.Result
	switch kind {
	case corpus.KindEmail:
		rows, err := ingest.ReadPeopleFile(input, format)
		if err != nil {
			return err
		}
		e.logger.Info("people loaded", "rows", len(rows), "path", input)
		res, err = enc.EncodePeople(ctx, rows)
		if err != nil {
			return err
		}
	case corpus.KindDomain:
		rows, err := ingest.ReadFirmsFile(input, format)
		if err != nil {
			return err
		}
		e.logger.Info("firms loaded", "rows", len(rows), "path", input)
		res, err = enc.EncodeFirms(ctx, rows)
		if err != nil {
			return err
		}
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".spmf"
	}
	if err := writeSPMF(out, res); err != nil {
		return err
	}

	if vocabPath, _ := cmd.Flags().GetString("vocab"); vocabPath != "" {
		if err := vocab.SaveGob(res.Vocabulary, vocabPath); err != nil {
			return err
		}
	}

	var runID int64
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		st, err := e.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if runID, err = st.SaveRun(ctx, res, input, e.lexiconTag()); err != nil {
			return err
		}
	}

	if jsonOutput(cmd) {
		return printJSON(cmd, map[string]any{
			"run":        runID,
			"kind":       kind,
			"spmf":       out,
			"summary":    res.Summary,
			"unk_tokens": res.Stats.UnkTokens,
			"vocabulary": res.Vocabulary.Len(),
		})
	}
	w := cmd.OutOrStdout()
	s := res.Summary
	if runID > 0 {
		fmt.Fprintf(w, "run %d (%s)\n", runID, kind)
	}
	fmt.Fprintf(w, "rows %d, encoded %d, unknown %d, decomposition failed %d, invalid %d\n",
		s.Rows, s.Encoded, s.Unknown, s.DecompositionFailed, s.InvalidInput)
	fmt.Fprintf(w, "vocabulary %d tokens, %d UNK tokens\n", res.Vocabulary.Len(), res.Stats.UnkTokens)
	fmt.Fprintf(w, "corpus written to %s\n", out)
	return nil
}

func writeSPMF(path string, res *corpus.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create corpus: %w", err)
	}
	if err := res.WriteSPMF(f); err != nil {
		f.Close()
		return fmt.Errorf("write corpus: %w", err)
	}
	return f.Close()
}
