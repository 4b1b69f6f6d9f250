package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/touchstone-templates/pkg/store"
	"github.com/hazyhaar/touchstone-templates/pkg/template"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored encoding runs",
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

			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tROWS\tENCODED\tUNKNOWN\tLEXICON\tCREATED\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
					r.ID, r.Kind, r.Summary.Rows, r.Summary.Encoded, r.Summary.Unknown,
					r.Lexicon, time.Unix(r.CreatedAt, 0).UTC().Format(time.RFC3339), r.Source)
			}
			return tw.Flush()
		},
	}
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [id]...",
		Short: "Map vocabulary ids back to template tokens",
		Long: `Map vocabulary ids back to template tokens.

Ids may be given as separate arguments or as one quoted SPMF line
("1 -1 2 -1 -2"); the -1 and -2 markers are skipped and any other id
below 1 is an error. Separate marker arguments must follow "--" so they
are not read as flags:

  templater decode -- 1 -1 2 -1 -2

With --spmf every sequence of a corpus file is decoded, one template per
line.

The vocabulary comes from a stored run (--run, default latest) or from a
gob file written by "encode --vocab".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}

			var seqs [][]int
			if path, _ := cmd.Flags().GetString("spmf"); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open corpus: %w", err)
				}
				seqs, err = vocab.ReadSPMF(f)
				f.Close()
				if err != nil {
					return err
				}
			} else {
				ids, err := parseIDArgs(args)
				if err != nil {
					return err
				}
				seqs = [][]int{ids}
			}

			v, source, err := loadDecodeVocabulary(cmd, e)
			if err != nil {
				return err
			}

			templates := make([]template.Template, len(seqs))
			for i, seq := range seqs {
				if templates[i], err = v.Decode(seq); err != nil {
					return fmt.Errorf("sequence %d: %w", i+1, err)
				}
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"vocabulary": source, "templates": templates})
			}
			for _, tpl := range templates {
				fmt.Fprintln(cmd.OutOrStdout(), tpl.Key())
			}
			return nil
		},
	}
	cmd.Flags().Int64("run", 0, "Run id (default: latest run)")
	cmd.Flags().String("vocab", "", "Vocabulary gob file instead of a stored run")
	cmd.Flags().String("spmf", "", "Decode every sequence of this SPMF corpus")
	return cmd
}

func loadDecodeVocabulary(cmd *cobra.Command, e *env) (*vocab.Vocabulary, string, error) {
	if path, _ := cmd.Flags().GetString("vocab"); path != "" {
		v, err := vocab.LoadGob(path)
		return v, path, err
	}
	st, err := e.openStore()
	if err != nil {
		return nil, "", err
	}
	defer st.Close()

	ctx := cmd.Context()
	runID, _ := cmd.Flags().GetInt64("run")
	if runID, err = resolveRun(ctx, st, runID); err != nil {
		return nil, "", err
	}
	v, err := st.LoadVocabulary(ctx, runID)
	return v, fmt.Sprintf("run %d", runID), err
}

// resolveRun returns id, or the latest run of any kind when id is 0.
func resolveRun(ctx context.Context, st *store.Store, id int64) (int64, error) {
	if id > 0 {
		if _, err := st.GetRun(ctx, id); err != nil {
			return 0, err
		}
		return id, nil
	}
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return 0, err
	}
	if len(runs) == 0 {
		return 0, store.ErrRunNotFound
	}
	return runs[len(runs)-1].ID, nil
}

func parseIDArgs(args []string) ([]int, error) {
	var ids []int
	for _, f := range strings.Fields(strings.Join(args, " ")) {
		n, err := strconv.Atoi(strings.Trim(f, ","))
		if err != nil {
			return nil, fmt.Errorf("id %q is not an integer", f)
		}
		switch {
		case n == vocab.ItemsetEnd || n == vocab.SequenceEnd:
			continue
		case n < 1:
			return nil, fmt.Errorf("id %d is not a vocabulary id", n)
		}
		ids = append(ids, n)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}
