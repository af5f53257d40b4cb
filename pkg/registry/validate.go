package registry

import (
	"fmt"
	"math"
	"strings"

	"github.com/agencymap/agencymap/pkg/errors"
)

// fundSplitTolerance absorbs rounding drift between a distribution's total
// and the sum of its buckets.
const fundSplitTolerance = 0.01

// Validate checks schema invariants and cross-field consistency over the
// whole registry. It returns the first violation found so that a bad file
// fails loudly at load time rather than corrupting a later write.
func (reg *Registry) Validate() error {
	seen := make(map[string]string, len(reg.records))

	for _, r := range reg.records {
		if err := r.Validate(); err != nil {
			return err
		}

		key := strings.ToLower(r.CanonicalName)
		if prev, dup := seen[key]; dup {
			return errors.NewValidationError(r.ID(), "canonicalName",
				fmt.Sprintf("duplicate canonical name %q (also on %s)", r.CanonicalName, prev))
		}
		seen[key] = r.ID()

		// Parent must reference an existing record.
		if r.ParentCode != "" {
			if _, ok := reg.byID[r.ParentCode]; !ok {
				return errors.NewValidationError(r.ID(), "parentCode",
					fmt.Sprintf("parent org code %q not in registry", r.ParentCode))
			}
			if r.ParentCode == r.OrgCode {
				return errors.NewValidationError(r.ID(), "parentCode", "record is its own parent")
			}
		}
	}
	return nil
}

// Validate checks a single record's schema invariants.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.NewValidationError(r.ID(), "name", "required")
	}
	if strings.TrimSpace(r.CanonicalName) == "" {
		return errors.NewValidationError(r.Name, "canonicalName", "required")
	}
	if r.Aliases == nil {
		return errors.NewValidationError(r.ID(), "aliases", "required (may be empty, not absent)")
	}
	if strings.TrimSpace(r.BudgetStatus) == "" {
		return errors.NewValidationError(r.ID(), "budgetStatus", "required")
	}

	if r.OrgCode != "" && !validOrgCode(r.OrgCode) {
		return errors.NewValidationError(r.ID(), "orgCode",
			fmt.Sprintf("must be a 4-digit organization code, got %q", r.OrgCode))
	}
	if r.ParentCode != "" && !validOrgCode(r.ParentCode) {
		return errors.NewValidationError(r.ID(), "parentCode",
			fmt.Sprintf("must be a 4-digit organization code, got %q", r.ParentCode))
	}

	for year, amount := range r.Budgets {
		if amount < 0 {
			return errors.NewValidationError(r.ID(), "budgets."+year, "negative amount")
		}
	}
	for year, count := range r.Positions {
		if count < 0 {
			return errors.NewValidationError(r.ID(), "positions."+year, "negative position count")
		}
	}

	// Cross-field: bucket values must sum to the distribution total.
	if r.FundSplit != nil {
		if diff := math.Abs(r.FundSplit.Sum() - r.FundSplit.Total); diff > fundSplitTolerance {
			return errors.NewValidationError(r.ID(), "fundSplit",
				fmt.Sprintf("buckets sum to %.2f, total is %.2f", r.FundSplit.Sum(), r.FundSplit.Total))
		}
	}

	return nil
}

// validOrgCode reports whether code is a 4-digit organization code, the
// format the state budget's organizational structure uses.
func validOrgCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
