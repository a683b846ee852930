package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/component"
)

func newNormalizeCmd(g *globalOptions) *cobra.Command {
	var (
		input      string
		output     string
		libraryDir string
		fix        bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Report structural issues in a diagram and optionally write the fixed copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			d, comps, err := decodeInput(data)
			if err != nil {
				return err
			}
			lib, err := component.Open(libraryDir, g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			fixed, res, err := checker.New(lib).Normalize(cmd.Context(), d, comps)
			if err != nil {
				return err
			}

			if !fix {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				printIssues(cmd.OutOrStdout(), res.Issues)
				return nil
			}

			printIssues(cmd.ErrOrStderr(), res.Issues)
			out, err := json.MarshalIndent(fixed, "", "  ")
			if err != nil {
				return fmt.Errorf("encode diagram: %w", err)
			}
			return writeOutput(output, cmd.OutOrStdout(), append(out, '\n'))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "diagram JSON file (- for stdin)")
	f.StringVarP(&output, "output", "o", "", "where to write the fixed diagram with --fix (default stdout)")
	f.StringVar(&libraryDir, "library", "", "component library directory (default: built-in)")
	f.BoolVar(&fix, "fix", false, "apply auto-fixes and emit the corrected diagram")
	f.BoolVar(&asJSON, "json", false, "print the validation result as JSON")
	return cmd
}
