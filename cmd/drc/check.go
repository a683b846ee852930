package main

import (
	"github.com/spf13/cobra"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/component"
)

type checkOptions struct {
	input              string
	libraryDir         string
	asJSON             bool
	noAutoFix          bool
	checkOptionalPorts bool
	maxParallel        int
	disabled           []string
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every design rule against a diagram",
		Long: `Run the design rule catalog against a diagram file.

The input is either a bare diagram ({"nodes": [...], "edges": [...]}) or an
envelope {"diagram": {...}, "components": [...]} whose components replace
the library. Exits 1 when the report has a critical finding.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, g, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "diagram JSON file (- for stdin)")
	f.StringVar(&o.libraryDir, "library", "", "component library directory (default: built-in)")
	f.BoolVar(&o.asJSON, "json", false, "print the report as JSON")
	f.BoolVar(&o.noAutoFix, "no-autofix", false, "evaluate the diagram as given instead of its normalized copy")
	f.BoolVar(&o.checkOptionalPorts, "check-optional-ports", false, "report unconnected optional interfaces")
	f.IntVar(&o.maxParallel, "max-parallel", 0, "max rules run concurrently (0 = number of CPUs)")
	f.StringSliceVar(&o.disabled, "disable", nil, "rule ids to skip")
	return cmd
}

func runCheck(cmd *cobra.Command, g *globalOptions, o *checkOptions) error {
	data, err := readInput(o.input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	d, comps, err := decodeInput(data)
	if err != nil {
		return err
	}

	log := g.logger(cmd.ErrOrStderr())
	lib, err := component.Open(o.libraryDir, log)
	if err != nil {
		return err
	}

	opts := checker.DefaultOptions()
	opts.AutoFix = !o.noAutoFix
	opts.CheckOptionalPorts = o.checkOptionalPorts
	opts.MaxParallel = o.maxParallel
	opts.DisabledRules = o.disabled

	res, err := checker.New(lib).WithLogger(log).Check(cmd.Context(), d, comps, opts)
	if err != nil {
		return err
	}

	if o.asJSON {
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), res)
	}
	if !res.Passed {
		return errCheckFailed
	}
	return nil
}
