package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Record is a canonical agency record: the authoritative stored entity that
// external observations reconcile against. OrgCode and ParentCode are
// write-once from the engine's view; aliases, notes, budget and position
// observations, and the fund split are the only mutable surface.
type Record struct {
	// Name is the display name as it appears in the registry
	Name string `json:"name" yaml:"name"`

	// CanonicalName is the normalized authoritative name
	CanonicalName string `json:"canonicalName" yaml:"canonicalName"`

	// Aliases are alternate names this agency is known by (order-significant)
	Aliases []string `json:"aliases" yaml:"aliases"`

	// OrgCode is the immutable 4-digit organization code from the state
	// budget's organizational structure
	OrgCode string `json:"orgCode,omitempty" yaml:"orgCode,omitempty"`

	// ParentCode is the immutable org code of the parent agency
	ParentCode string `json:"parentCode,omitempty" yaml:"parentCode,omitempty"`

	// BudgetStatus classifies the agency's budget treatment
	BudgetStatus string `json:"budgetStatus" yaml:"budgetStatus"`

	// Budgets maps fiscal year to appropriated amount
	Budgets map[string]float64 `json:"budgets,omitempty" yaml:"budgets,omitempty"`

	// Positions maps fiscal year to authorized position count
	Positions map[string]float64 `json:"positions,omitempty" yaml:"positions,omitempty"`

	// FundSplit breaks a total across funding buckets
	FundSplit *Distribution `json:"fundSplit,omitempty" yaml:"fundSplit,omitempty"`

	// Note is a free-text annotation
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Distribution breaks a total across named buckets. The bucket values must
// sum to the total, within rounding tolerance.
type Distribution struct {
	Total   float64            `json:"total" yaml:"total"`
	Buckets map[string]float64 `json:"buckets" yaml:"buckets"`
}

// Sum returns the sum of all bucket values.
func (d *Distribution) Sum() float64 {
	var sum float64
	for _, v := range d.Buckets {
		sum += v
	}
	return sum
}

// ID returns the stable identifier for the record: the org code when
// present, otherwise the canonical name.
func (r *Record) ID() string {
	if r.OrgCode != "" {
		return r.OrgCode
	}
	return r.CanonicalName
}

// HasAlias reports whether name matches one of the record's aliases,
// case-insensitively.
func (r *Record) HasAlias(name string) bool {
	for _, alias := range r.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// AddAlias appends an alias if it is not already present. Returns true if
// the alias was added.
func (r *Record) AddAlias(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || r.HasAlias(name) || strings.EqualFold(r.CanonicalName, name) {
		return false
	}
	r.Aliases = append(r.Aliases, name)
	return true
}

// Copy returns a deep copy of the record.
func (r *Record) Copy() *Record {
	c := *r
	c.Aliases = append([]string(nil), r.Aliases...)
	if r.Budgets != nil {
		c.Budgets = make(map[string]float64, len(r.Budgets))
		for k, v := range r.Budgets {
			c.Budgets[k] = v
		}
	}
	if r.Positions != nil {
		c.Positions = make(map[string]float64, len(r.Positions))
		for k, v := range r.Positions {
			c.Positions[k] = v
		}
	}
	if r.FundSplit != nil {
		fs := Distribution{Total: r.FundSplit.Total}
		if r.FundSplit.Buckets != nil {
			fs.Buckets = make(map[string]float64, len(r.FundSplit.Buckets))
			for k, v := range r.FundSplit.Buckets {
				fs.Buckets[k] = v
			}
		}
		c.FundSplit = &fs
	}
	return &c
}

// String returns a short human-readable description of the record.
func (r *Record) String() string {
	if r.OrgCode != "" {
		return fmt.Sprintf("%s (%s)", r.CanonicalName, r.OrgCode)
	}
	return r.CanonicalName
}

// Years returns the fiscal years with budget observations, sorted.
func (r *Record) Years() []string {
	years := make([]string, 0, len(r.Budgets))
	for y := range r.Budgets {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}

// Observation is one external record: a raw human-entered agency name with
// its observation payload and source identity. Observations never become
// canonical records; they only resolve to existing ones.
type Observation struct {
	// RawName is the name as it appeared in the source
	RawName string `json:"rawName"`

	// SourceFile identifies the file the observation came from
	SourceFile string `json:"sourceFile"`

	// SourceYear is the fiscal year the observation applies to
	SourceYear string `json:"sourceYear"`

	// Payload holds the observed numeric values keyed by measure
	// (e.g. "budget", "positions")
	Payload map[string]float64 `json:"payload,omitempty"`
}

// ID returns a stable identifier for checkpointing: source file plus raw
// name plus year uniquely identify a unit within a run.
func (o Observation) ID() string {
	return o.SourceFile + "|" + o.SourceYear + "|" + o.RawName
}
