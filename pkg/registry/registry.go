// Package registry holds the canonical agency records and their on-disk
// JSON representation. A registry loads once per run, mutates in memory as
// change-sets are approved, and persists through the update manager's
// atomic-replace discipline. Schema violations on load are fatal.
package registry

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	goyaml "github.com/goccy/go-yaml"

	"github.com/agencymap/agencymap/pkg/errors"
)

// Registry is an ordered set of canonical records with lookup indexes.
// It is not safe for concurrent use; the pipeline is single-threaded and
// concurrent invocations against the same registry file are unsupported.
type Registry struct {
	records []*Record
	byID    map[string]*Record
	path    string
}

// Load reads and validates a registry file. Any schema violation is fatal:
// the caller gets an error and no registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	reg, err := Parse(data)
	if err != nil {
		if perr, ok := err.(*errors.ParseError); ok {
			perr.File = path
		}
		return nil, err
	}
	reg.path = path
	return reg, nil
}

// Parse decodes a JSON array of records and validates it.
func Parse(data []byte) (*Registry, error) {
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.NewParseError("json", "", err.Error(), err)
	}

	reg := New(records)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// New builds a registry from records. The records are indexed but not
// validated; call Validate before trusting the data.
func New(records []*Record) *Registry {
	reg := &Registry{
		records: records,
		byID:    make(map[string]*Record, len(records)),
	}
	for _, r := range records {
		reg.byID[r.ID()] = r
	}
	return reg
}

// Path returns the file the registry was loaded from, if any.
func (reg *Registry) Path() string {
	return reg.path
}

// SetPath records where the registry persists to.
func (reg *Registry) SetPath(path string) {
	reg.path = path
}

// Records returns the records in registry order. The slice is shared;
// callers must not reorder it.
func (reg *Registry) Records() []*Record {
	return reg.records
}

// Len returns the number of records.
func (reg *Registry) Len() int {
	return len(reg.records)
}

// Find returns the record with the given ID (org code or canonical name).
func (reg *Registry) Find(id string) (*Record, error) {
	if r, ok := reg.byID[id]; ok {
		return r, nil
	}
	return nil, &errors.NotFoundError{Resource: "record", ID: id}
}

// FindByName returns the first record whose canonical name, display name,
// or alias equals name case-insensitively.
func (reg *Registry) FindByName(name string) (*Record, bool) {
	for _, r := range reg.records {
		if strings.EqualFold(r.CanonicalName, name) || strings.EqualFold(r.Name, name) || r.HasAlias(name) {
			return r, true
		}
	}
	return nil, false
}

// Copy returns a deep copy of the registry, preserving order and path.
func (reg *Registry) Copy() *Registry {
	records := make([]*Record, len(reg.records))
	for i, r := range reg.records {
		records[i] = r.Copy()
	}
	c := New(records)
	c.path = reg.path
	return c
}

// MarshalJSON encodes the registry as a JSON array of records.
func (reg *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(reg.records)
}

// WriteJSON writes the registry as indented JSON.
func (reg *Registry) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reg.records)
}

// WriteYAML writes the registry as a YAML document, for human-reviewable
// snapshot exports. The JSON file stays the persistence format.
func (reg *Registry) WriteYAML(w io.Writer) error {
	data, err := goyaml.Marshal(reg.records)
	if err != nil {
		return errors.WrapParse("yaml", reg.path, err)
	}
	_, err = w.Write(data)
	return err
}
