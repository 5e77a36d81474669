package commands

import (
	"fmt"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/credentials"
	"github.com/spf13/cobra"
)

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := credentials.DefaultPath()

			creds, err := credentials.Load(path)
			if err != nil {
				return err
			}
			if creds == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}

			if err := credentials.Remove(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed out %s\n", creds.Email)
			return nil
		},
	}
}
