package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := signedInClient(cmd)
			if err != nil {
				return err
			}

			identity, err := client.Me(cmd.Context())
			if err != nil {
				return friendlyAPIError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", render(boldStyle, identity.User.Name), identity.User.Email)
			fmt.Fprintf(out, "  organization: %s (%s)\n", identity.Organization.Name, identity.Organization.Slug)
			fmt.Fprintf(out, "  role:         %s\n", identity.Role)
			fmt.Fprintf(out, "  backend:      %s\n", client.BaseURL())
			return nil
		},
	}
}
