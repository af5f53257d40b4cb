// Package sources reads external observations from the tabular and
// text-extracted inputs that feed reconciliation runs. Each source yields
// raw names with their observation payloads and source identity; resolution
// and mutation happen elsewhere.
package sources

import "github.com/agencymap/agencymap/pkg/registry"

// Source yields external observations in input order.
type Source interface {
	// Observations reads all observations from the source.
	Observations() ([]registry.Observation, error)
}
