package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

const chglog = "git-chglog"

func ChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Generate or update CHANGELOG.md from git history",
		Long: `Generate CHANGELOG.md with git-chglog from conventional commits
(<type>[optional scope]: <description>, e.g. "fix(position): keep ZPOS upper nibble").

Examples:
  dev changelog
  dev changelog --next v0.3.0
  dev changelog --tag v0.2.0 --output CHANGES.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("could not get output flag: %w", err)
			}
			next, err := cmd.Flags().GetString("next")
			if err != nil {
				return fmt.Errorf("could not get next flag: %w", err)
			}
			tag, err := cmd.Flags().GetString("tag")
			if err != nil {
				return fmt.Errorf("could not get tag flag: %w", err)
			}
			_, err = exec.LookPath(chglog)
			if err != nil {
				slog.Error("git-chglog not found in PATH, install it with: go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest")
				return fmt.Errorf("git-chglog not installed: %w", err)
			}
			run := exec.CommandContext(cmd.Context(), chglog, chglogArgs(output, next, tag)...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			slog.Info("running git-chglog", "args", run.Args[1:])
			err = run.Run()
			if err != nil {
				return fmt.Errorf("failed to generate changelog: %w", err)
			}
			slog.Info("changelog generated", "output", output)
			return nil
		},
	}
	cmd.Flags().String("next", "", "next version tag (e.g. v0.3.0)")
	cmd.Flags().String("output", "CHANGELOG.md", "output file path")
	cmd.Flags().String("tag", "", "generate changelog for a single tag")
	return cmd
}

func chglogArgs(output, next, tag string) []string {
	if output == "" {
		output = "CHANGELOG.md"
	}
	args := []string{"--output", output}
	if next != "" {
		args = append(args, "--next-tag", next)
	}
	if tag != "" {
		args = append(args, tag)
	}
	return args
}
