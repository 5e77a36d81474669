// Package commands implements the hygiene CLI subcommands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/config"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/credentials"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const timeFormat = "2006-01-02 15:04"

// signedInClient builds a backend client from the stored credentials.
// The credentials' api_url wins over the config so commands keep talking
// to the backend the user actually signed in to.
func signedInClient(cmd *cobra.Command) (*api.Client, *credentials.Credentials, error) {
	cfg := config.FromContext(cmd.Context())

	creds, err := credentials.Load(credentials.DefaultPath())
	if err != nil {
		return nil, nil, err
	}
	if creds == nil {
		return nil, nil, fmt.Errorf("not signed in, run 'hygiene login' first")
	}

	base := creds.APIURL
	if base == "" {
		base = cfg.APIURL
	}

	client := api.New(base,
		api.WithLogger(config.GetLogger(cmd.Context())),
		api.WithToken(creds.Token),
	)
	return client, creds, nil
}

// friendlyAPIError rewrites backend errors for the terminal. An expired
// or revoked token reads as a prompt to sign in again instead of a bare
// 401.
func friendlyAPIError(err error) error {
	if err == nil {
		return nil
	}
	if api.IsUnauthorized(err) {
		return fmt.Errorf("session expired, run 'hygiene login' again")
	}
	if apiErr, ok := api.AsError(err); ok {
		return fmt.Errorf("%s", apiErr.Detail)
	}
	return err
}

// newTable returns a table writer in the house style.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// formatTime renders a timestamp for table cells.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeFormat)
}

// formatTimePtr renders an optional timestamp, "-" when absent.
func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}
