package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/config"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/credentials"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// LoginOptions holds options for the login command.
type LoginOptions struct {
	Email    string
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	opts := &LoginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: `Authenticate against the backend and store the access token.

The token is written to ~/.config/hygiene/credentials.json, readable
only by you. Subsequent commands use it until 'hygiene logout'.`,
		Example: `  # Prompt for email and password
  hygiene login

  # Sign in to a different backend
  hygiene login --api-url https://hygiene.example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "Account email (prompted when omitted)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Account password (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	reader := bufio.NewReader(cmd.InOrStdin())

	email := strings.TrimSpace(opts.Email)
	if email == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Email: ")
		line, err := readLine(reader)
		if err != nil {
			return err
		}
		email = line
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password := opts.Password
	if password == "" {
		pw, err := readPassword(cmd, reader)
		if err != nil {
			return err
		}
		password = pw
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	client := api.New(cfg.APIURL, api.WithLogger(logger))
	payload, err := client.Login(cmd.Context(), email, password)
	if err != nil {
		if apiErr, ok := api.AsError(err); ok {
			return fmt.Errorf("sign-in failed: %s", apiErr.Detail)
		}
		return fmt.Errorf("sign-in failed: %w", err)
	}

	path := credentials.DefaultPath()
	if err := credentials.Save(path, credentials.Credentials{
		APIURL: cfg.APIURL,
		Token:  payload.AccessToken,
		Email:  payload.User.Email,
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s, %s)\n",
		payload.User.Name, payload.Organization.Name, payload.Role)
	return nil
}

// readPassword prompts without echoing when stdin is a terminal, and
// falls back to a plain line read when input is piped.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	return readLine(reader)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
