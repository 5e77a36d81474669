package commands

import (
	"fmt"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display hygiene version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "hygiene v%s\n", version.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.GitCommit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.BuildDate)
		},
	}
}
