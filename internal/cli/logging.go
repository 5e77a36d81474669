package cli

import (
	"log/slog"
	"os"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli/config"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/telemetry"
)

// newLogger builds the process logger from the loaded config. Logs go
// to stderr so command output on stdout stays clean for piping. When
// telemetry is active in production the records are exported over OTLP
// instead of printed.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	var handler slog.Handler
	switch {
	case cfg.IsProduction() && cfg.Telemetry.Active():
		handler = telemetry.NewBridgeHandler(cfg.Telemetry.ServiceName)
	case cfg.JSONLogs():
		handler = telemetry.NewTraceHandler(slog.NewJSONHandler(os.Stderr, opts))
	default:
		handler = telemetry.NewTraceHandler(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(handler)
}
