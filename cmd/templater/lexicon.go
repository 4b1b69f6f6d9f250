package main

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/touchstone-templates/pkg/lexicon"
	"github.com/hazyhaar/touchstone-templates/pkg/names"
	"github.com/spf13/cobra"
)

func newLexiconCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect or export the lookup tables",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "export <path.gob>",
			Short: "Write the configured lexicon as a gob cache",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := setup(cmd)
				if err != nil {
					return err
				}
				if err := lexicon.SaveGob(e.lex.Manifest, args[0]); err != nil {
					return err
				}
				e.logger.Info("lexicon exported", "id", e.lex.Manifest.ID, "path", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "nicknames",
			Short: "List the formal given names and their nicknames",
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := setup(cmd)
				if err != nil {
					return err
				}
				formal := e.lex.FormalNames()
				if jsonOutput(cmd) {
					out := make(map[string][]string, len(formal))
					for _, f := range formal {
						out[f] = e.lex.Nicknames(f)
					}
					return printJSON(cmd, out)
				}
				for _, f := range formal {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", f, strings.Join(e.lex.Nicknames(f), ", "))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "name <full-name>",
			Short: "Show how a full name decomposes and its characteristics",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := setup(cmd)
				if err != nil {
					return err
				}
				d := names.NewDecomposer(e.lex, 0)
				ch, err := names.Characterize(e.lex, d, args[0])
				if err != nil {
					return err
				}
				n, _ := d.Decompose(args[0])
				if jsonOutput(cmd) {
					return printJSON(cmd, map[string]any{"name": n, "characteristics": ch})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "first:  %v\nmiddle: %v\nlast:   %v\n", n.First, n.Middle, n.Last)
				fmt.Fprintf(w, "%+v\n", ch)
				return nil
			},
		},
	)
	return cmd
}
