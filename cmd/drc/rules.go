package main

import (
	"github.com/spf13/cobra"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/component"
)

func newRulesCmd(*globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalog in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := checker.New(component.NewStatic()).Catalog()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), catalog)
			}
			return printCatalog(cmd.OutOrStdout(), catalog)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
