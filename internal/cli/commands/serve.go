package commands

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"time"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/config"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ratelimit"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/telemetry"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui"
	"github.com/spf13/cobra"
)

// devSessionSecret signs cookies when no secret is configured. Serving
// in production without a real secret is refused instead.
const devSessionSecret = "hygiene-dev-secret-change-in-production" //nolint:gosec

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
	Open  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hygiene web console",
		Long: `Start a local web server providing the data quality console.

The console serves:
- Dashboard with quality score and recent executions
- Dataset browser with column profiles
- Rule management
- Execution history with live status updates
- Issue triage and fix tracking`,
		Example: `  # Serve on the configured address (default :8090)
  hygiene serve

  # Serve on a custom port, rebuilding assets on change
  hygiene serve --port 3000 --watch

  # Open the browser once the server is up
  hygiene serve --open`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (overrides listen_addr)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Rebuild assets and refresh pages on change")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the browser after startup")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	// CLI flags override config file
	addr := cfg.ListenAddr
	if opts.Port != 0 {
		addr = fmt.Sprintf(":%d", opts.Port)
	}

	watch := cfg.UI.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	autoOpen := cfg.UI.AutoOpen
	if cmd.Flags().Changed("open") {
		autoOpen = opts.Open
	}

	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.IsProduction() {
			return fmt.Errorf("session_secret must be set in production, set HYGIENE_SESSION_SECRET or session_secret in hygiene.yaml")
		}
		logger.Warn("session_secret not set, using the development default")
		secret = devSessionSecret
	}

	tel, err := telemetry.Setup(cmd.Context(), telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Headers:     cfg.Telemetry.Headers,
	})
	if err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	server, err := ui.NewServer(ui.Config{
		APIBaseURL:    cfg.APIURL,
		Addr:          addr,
		SessionSecret: secret,
		SecureCookies: cfg.IsProduction(),
		PrefsPath:     cfg.PrefsPath,
		Watch:         watch,
		Dev:           cfg.IsDevelopment(),
		Traced:        cfg.Telemetry.Active(),
		RateLimit: ratelimit.Config{
			Enabled:     cfg.RateLimit.Enabled,
			RedisURL:    cfg.RateLimit.RedisURL,
			MaxAttempts: cfg.RateLimit.MaxAttempts,
			Window:      cfg.RateLimit.Window,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	url := consoleURL(addr)
	if autoOpen {
		go openBrowser(url)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting console on %s\n", url)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// consoleURL turns a listen address into something clickable.
func consoleURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
