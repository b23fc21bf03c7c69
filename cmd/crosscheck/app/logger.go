package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/nexa-labs/crosscheck/internal/config"
	"github.com/nexa-labs/crosscheck/pkg/logging"
)

// NewLogger creates a configured logger from config and flag state.
// Log level precedence (highest to lowest):
//  1. --log-level flag (explicit always wins)
//  2. -v/--verbose flag (shortcut for debug)
//  3. -q/--quiet flag (shortcut for warn)
//  4. configured level (config file or CROSSCHECK_LOG_LEVEL)
//  5. default (info)
func NewLogger(cfg *config.Config, flags Flags) zerolog.Logger {
	logConfig := &logging.Config{
		Level:     determineLogLevel(cfg, flags),
		Format:    cfg.Log.Format,
		Output:    cfg.Log.Output,
		AddCaller: flags.Verbose,
	}
	return logging.NewLoggerFromConfig(logConfig)
}

// determineLogLevel applies the precedence rules above.
func determineLogLevel(cfg *config.Config, flags Flags) string {
	if flags.LogLevel != "" {
		return validateLogLevel(flags.LogLevel)
	}
	if flags.Verbose && flags.Quiet {
		fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		return "warn"
	}
	if flags.Verbose {
		return "debug"
	}
	if flags.Quiet {
		return "warn"
	}
	if cfg.Log.Level != "" {
		return cfg.Log.Level
	}
	return "info"
}

// validateLogLevel falls back to info for unknown level names.
func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using \"info\"\n", level)
		return "info"
	}
}
