package diff

import (
	"fmt"

	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Kind identifies which entity population a diff entry belongs to.
type Kind string

const (
	// KindPerson compares the active people on each side.
	KindPerson Kind = "person"
	// KindClient compares the active clients, with roster names
	// translated through the client map first.
	KindClient Kind = "client"
	// KindProject compares the projects with allocations inside the
	// window.
	KindProject Kind = "project"
)

// String returns the kind as a string.
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a known value.
func (k Kind) IsValid() bool {
	switch k {
	case KindPerson, KindClient, KindProject:
		return true
	}
	return false
}

// AllKinds returns the entity kinds in report order.
func AllKinds() []Kind {
	return []Kind{KindPerson, KindClient, KindProject}
}

// Reason classifies why an entity appears in the diff.
type Reason string

const (
	// ReasonMissing marks an entity active in one system with no
	// counterpart in the other after name mapping.
	ReasonMissing Reason = "missing"
	// ReasonCreate marks a client that has allocations inside the
	// window on its own side, so a counterpart should be created.
	ReasonCreate Reason = "create"
	// ReasonDormant marks a client that has projects on its own side
	// but none with allocations inside the window.
	ReasonDormant Reason = "dormant"
)

// String returns the reason as a string.
func (r Reason) String() string {
	return string(r)
}

// IsValid returns true if the reason is a known value.
func (r Reason) IsValid() bool {
	switch r {
	case ReasonMissing, ReasonCreate, ReasonDormant:
		return true
	}
	return false
}

// Entry reports one entity present in one system's active set but
// absent from the other's.
type Entry struct {
	System records.System `json:"system" yaml:"system"`                     // system the entity was found in
	Kind   Kind           `json:"kind" yaml:"kind"`                         // entity population
	Name   string         `json:"name" yaml:"name"`                         // entity name as its own system spells it
	Mapped string         `json:"mapped,omitempty" yaml:"mapped,omitempty"` // translated name used for comparison, when it differs
	Reason Reason         `json:"reason" yaml:"reason"`
}

// Description renders the entry's reason as report text.
func (e Entry) Description() string {
	switch e.Reason {
	case ReasonCreate:
		return fmt.Sprintf("create in %s", e.System.Other())
	case ReasonDormant:
		return "no projects currently running"
	default:
		return fmt.Sprintf("found in %s but not in %s (after mapping)", e.System, e.System.Other())
	}
}
