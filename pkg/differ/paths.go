package differ

import (
	"fmt"
	"strings"

	"github.com/agencymap/agencymap/pkg/errors"
)

// setPath writes value at the dotted path, creating intermediate objects
// as needed.
func setPath(m map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	current := m

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok || next == nil {
			child := make(map[string]any)
			current[part] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return errors.NewValidationError("", path,
				fmt.Sprintf("path segment %q is not an object", part))
		}
		current = child
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// removePath deletes the value at the dotted path. Missing segments are
// not an error; removing an absent field is a no-op.
func removePath(m map[string]any, path string) error {
	parts := strings.Split(path, ".")
	current := m

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			return nil
		}
		child, ok := next.(map[string]any)
		if !ok {
			return errors.NewValidationError("", path,
				fmt.Sprintf("path segment %q is not an object", part))
		}
		current = child
	}

	delete(current, parts[len(parts)-1])
	return nil
}
