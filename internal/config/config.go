// Package config loads reconciliation settings from config files,
// environment variables, and .env files. Command-line flags, handled by
// cobra, take precedence over everything here.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/nexa-labs/crosscheck/pkg/errors"
)

// validate is the shared validator instance for config structs.
var validate = validator.New()

// Config holds everything one reconciliation run needs.
type Config struct {
	Roster  RosterConfig
	Planner PlannerConfig
	Run     RunConfig
	Log     LogConfig
}

// RosterConfig points at the staffing SaaS API and its identity endpoint.
type RosterConfig struct {
	BaseURL         string `validate:"omitempty,url"`
	AuthURL         string `validate:"omitempty,url"`
	Origin          string `validate:"omitempty,url"`
	Username        string
	Password        string
	Timezone        string
	ClientDelimiter string // set when client names are embedded in project names
}

// PlannerConfig points at the scenario-planning database.
type PlannerConfig struct {
	URL      string `validate:"omitempty,uri"` // full connection URL, overrides the individual fields
	Host     string
	Port     int `validate:"omitempty,min=1,max=65535"`
	User     string
	Password string
	DBName   string
	SSLMode  string
	Scenario int `validate:"min=0"` // 0 means newest
}

// RunConfig holds per-run reconciliation settings.
type RunConfig struct {
	Window      string // e.g. "July 2025"; empty means the current month
	MappingFile string
	Sentinel    string
	Person      string // restrict the run to one person when set
	Format      string `validate:"omitempty,oneof=table markdown csv json yaml"`
	SnapshotDir string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `validate:"omitempty,oneof=trace debug info warn error"`
	Format string `validate:"omitempty,oneof=auto json console pretty"`
	Output string
}

// Load reads configuration in order of precedence:
// 1. Environment variables with CROSSCHECK_ prefix
// 2. crosscheck.yaml (working directory, then home)
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("crosscheck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &errors.ConfigError{Component: "config", Message: "unreadable config file", Err: err}
		}
		// No config file is fine, env vars and defaults cover it.
	}

	v.SetEnvPrefix("CROSSCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Roster: RosterConfig{
			BaseURL:         v.GetString("roster.base_url"),
			AuthURL:         v.GetString("roster.auth_url"),
			Origin:          v.GetString("roster.origin"),
			Username:        v.GetString("roster.username"),
			Password:        v.GetString("roster.password"),
			Timezone:        v.GetString("roster.timezone"),
			ClientDelimiter: v.GetString("roster.client_delimiter"),
		},
		Planner: PlannerConfig{
			URL:      v.GetString("planner.url"),
			Host:     v.GetString("planner.host"),
			Port:     v.GetInt("planner.port"),
			User:     v.GetString("planner.user"),
			Password: v.GetString("planner.password"),
			DBName:   v.GetString("planner.dbname"),
			SSLMode:  v.GetString("planner.sslmode"),
			Scenario: v.GetInt("planner.scenario"),
		},
		Run: RunConfig{
			Window:      v.GetString("run.window"),
			MappingFile: v.GetString("run.mapping_file"),
			Sentinel:    v.GetString("run.sentinel"),
			Person:      v.GetString("run.person"),
			Format:      v.GetString("run.format"),
			SnapshotDir: v.GetString("run.snapshot_dir"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	if cfg.Planner.Port == 0 {
		cfg.Planner.Port = 5432
	}
	if cfg.Planner.SSLMode == "" {
		cfg.Planner.SSLMode = "disable"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "auto"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

// Validate checks field formats and ranges. Presence of credentials is
// checked by CheckLive on the sources a command actually uses, so
// snapshot-only runs work without any of them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &errors.ConfigError{Component: "config", Message: "invalid configuration", Err: err}
	}
	return nil
}

// CheckLive reports whether a live roster fetch can be configured,
// naming every missing field.
func (c RosterConfig) CheckLive() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "roster.base_url")
	}
	if c.AuthURL == "" {
		missing = append(missing, "roster.auth_url")
	}
	if c.Username == "" {
		missing = append(missing, "roster.username")
	}
	if c.Password == "" {
		missing = append(missing, "roster.password")
	}
	if len(missing) > 0 {
		return &errors.ConfigError{
			Component: "roster",
			Message:   "missing " + strings.Join(missing, ", "),
			Err:       errors.ErrCredentialsRequired,
		}
	}
	return nil
}

// CheckLive reports whether a live planner query can be configured.
func (c PlannerConfig) CheckLive() error {
	if c.DSN() == "" {
		return &errors.ConfigError{
			Component: "planner",
			Message:   "missing planner.url or planner.host and planner.dbname",
		}
	}
	return nil
}

// DSN returns the database connection string, preferring an explicitly
// configured URL over assembly from the individual fields.
func (c PlannerConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" || c.DBName == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.DBName,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
