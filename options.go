package crosscheck

import (
	"github.com/nexa-labs/crosscheck/internal/sources"
	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
)

// Option is a function that configures a Runner instance.
type Option func(*config) error

// config collects the construction-time settings for a Runner.
type config struct {
	sources     []sources.Source
	mapping     *mapping.File
	mappingPath string
	sentinel    string
}

// defaultConfig returns the settings a Runner starts from before options
// are applied.
func defaultConfig() *config {
	return &config{}
}

// WithSource registers the data source for one system. Registering a
// second source for the same system replaces the first.
func WithSource(src sources.Source) Option {
	return func(c *config) error {
		if src == nil {
			return &errors.ValidationError{Field: "source", Message: "source must not be nil"}
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithSources registers several data sources at once.
func WithSources(srcs ...sources.Source) Option {
	return func(c *config) error {
		for _, src := range srcs {
			if src == nil {
				return &errors.ValidationError{Field: "sources", Message: "source must not be nil"}
			}
			c.sources = append(c.sources, src)
		}
		return nil
	}
}

// WithMappingFile sets the path of the YAML mapping file loaded at the
// start of each run. Without a mapping the client table is empty and
// names must already agree between the two systems.
func WithMappingFile(path string) Option {
	return func(c *config) error {
		c.mappingPath = path
		return nil
	}
}

// WithMapping supplies an already parsed mapping configuration. It takes
// precedence over WithMappingFile.
func WithMapping(f *mapping.File) Option {
	return func(c *config) error {
		if f == nil {
			return &errors.ValidationError{Field: "mapping", Message: "mapping must not be nil"}
		}
		c.mapping = f
		return nil
	}
}

// WithSentinel overrides the administrative catch-all assignee excluded
// from unmatched output and person gaps. Empty keeps the mapping file's
// choice.
func WithSentinel(person string) Option {
	return func(c *config) error {
		c.sentinel = person
		return nil
	}
}
