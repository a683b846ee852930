package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soc-pilot/drc/internal/logger"
)

// errCheckFailed makes the process exit 1 without printing another error.
var errCheckFailed = errors.New("design rule check failed")

type globalOptions struct {
	logLevel  string
	colorMode string
}

func (g *globalOptions) logger(w io.Writer) *slog.Logger {
	return logger.NewWriter(w, logger.Config{Level: g.logLevel, Format: "text"})
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "drc",
		Short:         "Design rule checks for SoC block diagrams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			switch g.colorMode {
			case "on", "always":
				color.NoColor = false
			case "off", "never":
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&g.colorMode, "color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(
		newCheckCmd(g),
		newNormalizeCmd(g),
		newRulesCmd(g),
		newLibraryCmd(g),
		newServeCmd(g),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		}
		os.Exit(1)
	}
}
