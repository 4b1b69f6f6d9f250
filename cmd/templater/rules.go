package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/template"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules <rules-file>",
		Short: "Decode mined sequential rules and rank the templates of a run",
		Long: `Decode mined sequential rules and rank the templates of a run.

The rules file holds one rule per line in SPMF output form:
  1,3 ==> 2 #SUP: 50 #CONF: 0.6
Each distinct template of the run becomes a candidate with its support,
coverage and the confidence of the rules it contains.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open rules: %w", err)
			}
			defer f.Close()
			rules, err := vocab.ParseRules(f)
			if err != nil {
				return err
			}

			st, err := e.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			runID, _ := cmd.Flags().GetInt64("run")
			if runID, err = resolveRun(ctx, st, runID); err != nil {
				return err
			}
			v, err := st.LoadVocabulary(ctx, runID)
			if err != nil {
				return err
			}
			decoded, err := v.DecodeRules(rules)
			if err != nil {
				return err
			}
			rows, err := st.RowTemplates(ctx, runID)
			if err != nil {
				return err
			}

			var observed []template.Template
			for _, r := range rows {
				if r.Status == corpus.StatusOK {
					observed = append(observed, r.Template)
				}
			}
			minSupport, _ := cmd.Flags().GetInt("min-support")
			cands := corpus.PruneCandidates(corpus.Enrich(observed, len(rows), decoded), minSupport)
			e.logger.Info("candidates ranked", "run", runID, "rules", len(rules), "candidates", len(cands))

			withFirms, _ := cmd.Flags().GetBool("firms")
			if jsonOutput(cmd) {
				out := map[string]any{"run": runID, "rules": decoded, "candidates": cands}
				if withFirms {
					out["firms"] = corpus.FirmTemplateMap(rows, cands)
				}
				return printJSON(cmd, out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUPPORT\tCOVERAGE\tRULES\tMAX_CONF\tTEMPLATE")
			for _, c := range cands {
				fmt.Fprintf(tw, "%d\t%d\t%.4f\t%t\t%.3f\t%s\n",
					c.ID, c.SupportCount, c.CoveragePct, c.InMinedRules, c.MaxRuleConfidence, c.Template.Key())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if withFirms {
				fmt.Fprintln(cmd.OutOrStdout())
				tw = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "FIRM\tPEOPLE\tTEMPLATES\tDIVERSITY")
				for _, ft := range corpus.FirmTemplateMap(rows, cands) {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\n", ft.Firm, ft.NumPeople, ft.NumTemplates, ft.DiversityRatio)
				}
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().Int64("run", 0, "Run id (default: latest run)")
	cmd.Flags().Int("min-support", 2, "Drop candidates seen fewer times")
	cmd.Flags().Bool("firms", false, "Also print the per-firm template map")
	return cmd
}
