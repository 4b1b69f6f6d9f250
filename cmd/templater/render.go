package main

import (
	"fmt"

	"github.com/hazyhaar/touchstone-templates/pkg/names"
	"github.com/hazyhaar/touchstone-templates/pkg/template"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Build the identifier a template describes for a given name",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "email <full-name> <token>...",
			Short:   "Render an email local-part",
			Example: `  templater render email "John Michael Smith" first_original_0 . m_0 . last_original_0`,
			Args:    cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				tpl := template.Template(args[1:])
				if _, err := template.ParseTemplate(tpl); err != nil {
					return err
				}
				e, err := setup(cmd)
				if err != nil {
					return err
				}
				n, err := names.NewDecomposer(e.lex, 0).Decompose(args[0])
				if err != nil {
					return err
				}
				lp, err := template.RenderLocalPart(n, tpl)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), lp)
				return nil
			},
		},
		&cobra.Command{
			Use:     "domain <firm> <token>...",
			Short:   "Render a domain root",
			Example: `  templater render domain "Bain Capital" 0 1_sub_3`,
			Args:    cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				root, err := template.RenderDomainRoot(template.FirmWords(args[0]), template.Template(args[1:]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), root)
				return nil
			},
		},
	)
	return cmd
}
