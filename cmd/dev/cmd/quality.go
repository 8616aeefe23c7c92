package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// quality checks delegate to devtool; only the wording is project specific.
var qualityTasks = []struct {
	use   string
	short string
	long  string
	run   func() error
}{
	{"test", "Run unit tests", "Run unit tests. They need no hardware: the sensor is simulated and buses are mocked.", test.Test},
	{"lint", "Run linting", "", test.Lint},
	{"integration-test", "Run integration tests", "Run the integration build tag against an AS5600 connected through an MCP2221 adapter.", test.Integ},
}

// QualityCmds returns one command per quality check.
func QualityCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(qualityTasks))
	for _, task := range qualityTasks {
		cmds = append(cmds, &cobra.Command{
			Use:   task.use,
			Short: task.short,
			Long:  task.long,
			RunE: func(cmd *cobra.Command, args []string) error {
				slog.Info("running quality check", "check", task.use)
				err := task.run()
				if err != nil {
					return fmt.Errorf("%s failed: %w", task.use, err)
				}
				return nil
			},
		})
	}
	return cmds
}
