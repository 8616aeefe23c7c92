package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mklimuk/rotary/cmd/dev/cmd"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		slog.Error("unexpected error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:          "dev",
		Short:        "build/test/release tool for the rotary project",
		Long:         "Developer tool for the rotary cli: cross builds, quality checks and changelog generation.",
		SilenceUsage: true,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			slog.SetDefault(slog.New(newHandler(debug)))
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.AddCommand(cmd.BuildCmd(), cmd.ChangelogCmd())
	root.AddCommand(cmd.QualityCmds()...)
	return root
}

func newHandler(debug bool) *log.Logger {
	charm := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "dev",
	})
	charm.SetColorProfile(termenv.TrueColor)
	charm.SetLevel(log.InfoLevel)
	if debug {
		charm.SetLevel(log.DebugLevel)
	}
	return charm
}
