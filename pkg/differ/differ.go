// Package differ enumerates field-level differences between two record
// versions and replays approved change-sets. Diffs recurse into nested
// object fields by dotted path; arrays and primitives are compared whole,
// so an order-significant list like aliases never produces a spurious
// partial diff.
package differ

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/agencymap/agencymap/pkg/errors"
)

// Diff compares two structured values and returns the ordered field
// changes between them, keyed by dotted path. Both values are viewed
// through their JSON encoding, so only fields that persist participate.
// Diff(x, x) is empty for every x, and the affected path set is the same
// regardless of which value is labeled before.
func Diff(before, after any) ([]FieldChange, error) {
	beforeMap, err := toMap(before)
	if err != nil {
		return nil, err
	}
	afterMap, err := toMap(after)
	if err != nil {
		return nil, err
	}

	var changes []FieldChange
	diffMaps("", beforeMap, afterMap, &changes)

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes, nil
}

// diffMaps walks two object values in parallel, recursing into fields that
// are objects on both sides and treating everything else as atomic.
func diffMaps(prefix string, before, after map[string]any, changes *[]FieldChange) {
	keys := make(map[string]bool, len(before)+len(after))
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}

	for key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		b, inBefore := before[key]
		a, inAfter := after[key]

		switch {
		case !inBefore:
			*changes = append(*changes, FieldChange{Path: path, After: a, Type: ChangeTypeAdd})
		case !inAfter:
			*changes = append(*changes, FieldChange{Path: path, Before: b, Type: ChangeTypeRemove})
		default:
			bMap, bIsMap := b.(map[string]any)
			aMap, aIsMap := a.(map[string]any)
			if bIsMap && aIsMap {
				diffMaps(path, bMap, aMap, changes)
				continue
			}
			// Arrays and primitives are atomic units.
			if !reflect.DeepEqual(b, a) {
				*changes = append(*changes, FieldChange{Path: path, Before: b, After: a, Type: ChangeTypeUpdate})
			}
		}
	}
}

// Apply replays a list of field changes onto a structured value, producing
// the updated value in out (a pointer to the same type). Applying the
// changes from Diff(x, y) onto x reproduces y.
func Apply(value any, changes []FieldChange, out any) error {
	m, err := toMap(value)
	if err != nil {
		return err
	}

	for _, change := range changes {
		switch change.Type {
		case ChangeTypeRemove:
			if err := removePath(m, change.Path); err != nil {
				return err
			}
		default:
			if err := setPath(m, change.Path, change.After); err != nil {
				return err
			}
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return errors.WrapParse("json", "", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.WrapParse("json", "", err)
	}
	return nil
}

// toMap views a value through its JSON encoding as a generic object.
func toMap(value any) (map[string]any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return m, nil
}
