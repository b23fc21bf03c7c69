// Package mapping holds the run configuration that bridges the two systems'
// vocabularies: the client name-equivalence table and the project rules used
// to decompose multimatches.
//
// The table is directional. Forward translates roster client names into
// planner names; Reverse is derived from the same entries with a
// deterministic tie-break, so round trips are stable across runs.
package mapping

import (
	"strings"
	"unicode/utf8"

	"github.com/nexa-labs/crosscheck/pkg/constants"
)

// Entry is one row of the client name table.
type Entry struct {
	Source   string `json:"source" yaml:"source"`                         // Client name as the roster spells it
	Target   string `json:"target" yaml:"target"`                         // Client name as the planner spells it
	Override bool   `json:"override,omitempty" yaml:"override,omitempty"` // Override rows beat plain rows for the same source
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}

// usable reports whether the entry carries a real target. Rows with an empty
// target or the placeholder "0" are reserved slots, not mappings.
func (e Entry) usable() bool {
	target := strings.TrimSpace(e.Target)
	return e.Source != "" && target != "" && target != constants.MappingSkipValue
}

// ClientMap is the bidirectional client-name table built once per run.
type ClientMap struct {
	forward map[string]string
	reverse map[string]string
	order   []string // first-seen source order, the tie of last resort
}

// NewClientMap builds a ClientMap from table entries. Entry order matters
// twice: among plain rows for the same source the first wins, and first-seen
// order breaks remaining reverse-index ties.
func NewClientMap(entries []Entry) *ClientMap {
	m := &ClientMap{
		forward: make(map[string]string, len(entries)),
		reverse: make(map[string]string, len(entries)),
		order:   make([]string, 0, len(entries)),
	}

	overridden := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.usable() {
			continue
		}
		target := strings.TrimSpace(e.Target)

		if e.Override {
			if !overridden[e.Source] {
				if _, seen := m.forward[e.Source]; !seen {
					m.order = append(m.order, e.Source)
				}
				m.forward[e.Source] = target
				overridden[e.Source] = true
			}
			continue
		}

		if _, seen := m.forward[e.Source]; seen {
			continue
		}
		m.forward[e.Source] = target
		m.order = append(m.order, e.Source)
	}

	// Derive the reverse index. Collisions are broken by preferring sources
	// without internal whitespace, then shorter sources, then first seen.
	for _, source := range m.order {
		target := m.forward[source]
		incumbent, exists := m.reverse[target]
		if !exists {
			m.reverse[target] = source
			continue
		}
		if reversePreferred(source, incumbent) {
			m.reverse[target] = source
		}
	}

	return m
}

// reversePreferred reports whether candidate should displace incumbent as
// the reverse mapping for a shared target.
func reversePreferred(candidate, incumbent string) bool {
	candCompact := !strings.ContainsAny(candidate, " \t")
	incCompact := !strings.ContainsAny(incumbent, " \t")
	if candCompact != incCompact {
		return candCompact
	}

	candLen := utf8.RuneCountInString(candidate)
	incLen := utf8.RuneCountInString(incumbent)
	if candLen != incLen {
		return candLen < incLen
	}

	// Equal on both heuristics; the incumbent was seen first and stays.
	return false
}

// Forward translates a roster client name into planner vocabulary. When the
// name has no entry it is returned unchanged with mapped == false; callers
// must branch on the boolean, not on string comparison.
func (m *ClientMap) Forward(source string) (target string, mapped bool) {
	if t, ok := m.forward[source]; ok {
		return t, true
	}
	return source, false
}

// Reverse translates a planner client name back into roster vocabulary.
// Targets never produced by Forward have no reverse entry.
func (m *ClientMap) Reverse(target string) (source string, ok bool) {
	s, ok := m.reverse[target]
	return s, ok
}

// MapOrSelf is Forward for callers that only need the passthrough value.
func (m *ClientMap) MapOrSelf(source string) string {
	target, _ := m.Forward(source)
	return target
}

// Len returns the number of forward entries.
func (m *ClientMap) Len() int {
	return len(m.forward)
}

// Sources returns the mapped source names in first-seen order.
func (m *ClientMap) Sources() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}
