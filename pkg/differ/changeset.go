package differ

import (
	"fmt"
	"strings"

	goyaml "github.com/goccy/go-yaml"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a field was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a field value changed.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates a field was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path   string     `json:"path" yaml:"path"`     // Dotted field path (e.g. "budgets.2024")
	Before any        `json:"before" yaml:"before"` // Previous value
	After  any        `json:"after" yaml:"after"`   // New value
	Type   ChangeType `json:"type" yaml:"type"`     // Type of change
}

// ChangeSet is a minimal, reviewable set of proposed field mutations to one
// canonical record.
type ChangeSet struct {
	// RecordID identifies the target record (org code or canonical name)
	RecordID string `json:"recordId" yaml:"recordId"`

	// Changes are the proposed field mutations, ordered by path
	Changes []FieldChange `json:"changes" yaml:"changes"`

	// Score is the match confidence the change-set was born from; automated
	// approval policies gate on it
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`

	// Reason records why this change-set was proposed
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// IsEmpty returns true if the change-set proposes no mutations.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Changes) == 0
}

// Paths returns the dotted paths the change-set touches, in order.
func (cs *ChangeSet) Paths() []string {
	paths := make([]string, len(cs.Changes))
	for i, c := range cs.Changes {
		paths[i] = c.Path
	}
	return paths
}

// Touches reports whether any change path equals field or falls under it.
func (cs *ChangeSet) Touches(field string) bool {
	for _, c := range cs.Changes {
		if c.Path == field || strings.HasPrefix(c.Path, field+".") {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the change-set.
func (cs *ChangeSet) String() string {
	if cs.IsEmpty() {
		return fmt.Sprintf("%s: no changes", cs.RecordID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d change(s)\n", cs.RecordID, len(cs.Changes))
	for _, c := range cs.Changes {
		switch c.Type {
		case ChangeTypeAdd:
			fmt.Fprintf(&b, "  + %s: %v\n", c.Path, c.After)
		case ChangeTypeRemove:
			fmt.Fprintf(&b, "  - %s: %v\n", c.Path, c.Before)
		default:
			fmt.Fprintf(&b, "  ~ %s: %v → %v\n", c.Path, c.Before, c.After)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// MarshalReport renders the change-set as a YAML block for review logs.
func (cs *ChangeSet) MarshalReport() ([]byte, error) {
	return goyaml.Marshal(cs)
}
