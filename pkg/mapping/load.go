package mapping

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/errors"
)

// File is the on-disk mapping configuration: the client table, the project
// rules, and run options.
type File struct {
	Clients []Entry       `json:"clients" yaml:"clients"`
	Rules   []ProjectRule `json:"project_rules,omitempty" yaml:"project_rules,omitempty"`
	Options Options       `json:"options,omitempty" yaml:"options,omitempty"`
}

// Options are mapping-adjacent knobs that travel with the table.
type Options struct {
	// SentinelPerson is the administrative catch-all assignee excluded from
	// unmatched output and person diffs. Empty means the default.
	SentinelPerson string `json:"sentinel_person,omitempty" yaml:"sentinel_person,omitempty"`

	// ExtractClientFromProject derives the roster client from project names
	// shaped like "CLIENT|PROJECT" when the client field is empty.
	ExtractClientFromProject bool `json:"extract_client_from_project,omitempty" yaml:"extract_client_from_project,omitempty"`

	// ProjectClientDelimiter is the separator for client extraction.
	// Empty means "|".
	ProjectClientDelimiter string `json:"project_client_delimiter,omitempty" yaml:"project_client_delimiter,omitempty"`
}

// Sentinel returns the configured sentinel person or the default.
func (o Options) Sentinel() string {
	if o.SentinelPerson != "" {
		return o.SentinelPerson
	}
	return constants.DefaultSentinelPerson
}

// Delimiter returns the configured extraction delimiter or the default.
func (o Options) Delimiter() string {
	if o.ProjectClientDelimiter != "" {
		return o.ProjectClientDelimiter
	}
	return "|"
}

// Load reads and parses a mapping file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return f, nil
}

// Parse parses mapping configuration from YAML bytes.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ClientMap builds the bidirectional client table from the file's entries.
func (f *File) ClientMap() *ClientMap {
	return NewClientMap(f.Clients)
}

// ProjectRules builds the rule table from the file's entries.
func (f *File) ProjectRules() *ProjectRules {
	return NewProjectRules(f.Rules)
}
