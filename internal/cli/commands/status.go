package commands

import (
	"fmt"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/config"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/credentials"
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the backend's health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			logger := config.GetLogger(cmd.Context())
			out := cmd.OutOrStdout()

			base := cfg.APIURL
			creds, err := credentials.Load(credentials.DefaultPath())
			if err != nil {
				return err
			}
			if creds != nil && creds.APIURL != "" {
				base = creds.APIURL
			}

			client := api.New(base, api.WithLogger(logger))
			health, err := client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "%s backend unreachable at %s\n", render(errorStyle, "✗"), base)
				return friendlyAPIError(err)
			}

			mark := render(successStyle, "✓")
			if health.Status != "ok" {
				mark = render(warnStyle, "!")
			}
			fmt.Fprintf(out, "%s backend %s at %s\n", mark, health.Status, base)
			fmt.Fprintf(out, "  version: %s\n", health.Version)

			if creds != nil {
				fmt.Fprintf(out, "  signed in as %s\n", creds.Email)
			} else {
				fmt.Fprintln(out, "  not signed in")
			}
			return nil
		},
	}
}
