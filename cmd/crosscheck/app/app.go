// Package app provides the application context and dependency wiring for
// the crosscheck CLI: configuration loading, logger setup, signal-aware
// execution, and command registration.
package app

import (
	"github.com/rs/zerolog"

	"github.com/nexa-labs/crosscheck/internal/config"
)

// App carries the dependencies every command pulls from: the resolved
// configuration, the logger, and build metadata.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Flags holds the global flag state cobra parses into.
	flags Flags

	// Configuration resolved from files, env vars, and .env files.
	config *config.Config

	// Logger
	logger *zerolog.Logger
}

// Flags is the global flag state shared by every command.
type Flags struct {
	Verbose  bool
	Quiet    bool
	LogLevel string
	Format   string
}

// New creates an App with the given build metadata, loading configuration
// and .env files before any command runs.
func New(version, commit, date, builtBy string) (*App, error) {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		config:  cfg,
	}

	logger := NewLogger(cfg, app.flags)
	app.logger = &logger

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the resolved configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Format returns the output format: the --format flag when given,
// otherwise the configured run format.
func (a *App) Format() string {
	if a.flags.Format != "" {
		return a.flags.Format
	}
	return a.config.Run.Format
}
