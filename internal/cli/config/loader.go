// Package config loads console configuration from defaults, an optional
// YAML file, HYGIENE_ environment variables and command-line flags, in
// rising order of precedence.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is the context key for the logger.
type loggerKey struct{}

// configKey is the context key for the loaded config.
type configKey struct{}

// Global koanf instance
var k = koanf.New(".")

var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > hygiene.yaml > hygiene.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("hygiene.yaml"); err == nil {
		return "hygiene.yaml"
	}
	if _, err := os.Stat("hygiene.yml"); err == nil {
		return "hygiene.yml"
	}
	return ""
}

// Load reads configuration from all sources and returns the merged
// result. Later sources override earlier ones: defaults, then the
// config file, then HYGIENE_ environment variables, then flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"api_url":                DefaultAPIURL,
		"listen_addr":            DefaultListenAddr,
		"environment":            DefaultEnvironment,
		"prefs_path":             DefaultPrefsPath(),
		"log.level":              "info",
		"log.format":             "auto",
		"ui.watch":               false,
		"ui.auto_open":           false,
		"ratelimit.enabled":      false,
		"ratelimit.max_attempts": 10,
		"ratelimit.window":       "1m",
		"telemetry.enabled":      false,
		"telemetry.service_name": DefaultServiceName,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables. A double underscore nests, so
	// HYGIENE_RATELIMIT__REDIS_URL becomes ratelimit.redis_url.
	if err := k.Load(env.Provider("HYGIENE_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "HYGIENE_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// 4. Flags (highest precedence, only when set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Secret-bearing fields may reference environment variables.
	cfg.SessionSecret = expandEnvVars(cfg.SessionSecret)
	cfg.RateLimit.RedisURL = expandEnvVars(cfg.RateLimit.RedisURL)
	cfg.Telemetry.Headers = expandEnvVars(cfg.Telemetry.Headers)

	return &cfg, nil
}

// flagKey maps a flag name to its config key. Flags that do not feed
// the config directly map to the empty string and are skipped.
func flagKey(name string) string {
	switch name {
	case "log-level":
		return "log.level"
	case "watch":
		return "ui.watch"
	case "open":
		return "ui.auto_open"
	case "config", "port":
		// --config names the file itself and --port folds into
		// listen_addr after loading.
		return ""
	}
	return strings.ReplaceAll(name, "-", "_")
}

// expandEnvVars replaces ${VAR} references with environment values.
func expandEnvVars(value string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// GetConfigFileUsed returns the path of the config file that was
// loaded, or "" when none was found.
func GetConfigFileUsed() string {
	return configFileUsed
}

// ResetConfig clears the loaded configuration state for tests.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config carried by the context, or a minimal
// default when none was stored.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	return &Config{
		APIURL:      DefaultAPIURL,
		ListenAddr:  DefaultListenAddr,
		Environment: DefaultEnvironment,
	}
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the context, falling back to a
// discard logger so callers never need a nil check.
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}
