package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soc-pilot/drc/internal/component"
	"github.com/soc-pilot/drc/internal/libhcl"
)

func newLibraryCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect and convert component libraries",
	}

	var libraryDir, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a component library as HCL",
		Long: `Load a component library (HCL, JSON or YAML files, or the built-in
catalog when --library is empty) and write it as a single HCL file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := component.Open(libraryDir, g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			if err := lib.EnsureInitialized(cmd.Context()); err != nil {
				return err
			}
			comps := lib.GetAllComponents()
			src, err := libhcl.Encode(comps)
			if err != nil {
				return err
			}
			if err := writeOutput(output, cmd.OutOrStdout(), src); err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d components to %s\n", len(comps), output)
			}
			return nil
		},
	}
	export.Flags().StringVar(&libraryDir, "library", "", "component library directory (default: built-in)")
	export.Flags().StringVarP(&output, "output", "o", "", "output HCL file (default stdout)")

	cmd.AddCommand(export)
	return cmd
}
