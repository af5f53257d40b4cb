package sources

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/registry"
)

// budgetLine matches a line from the extracted budget organizational
// structure: a 4-digit org code, the agency name, and optionally a trailing
// amount (thousands separators, accounting parentheses).
var budgetLine = regexp.MustCompile(`^(\d{4})\s+(.+?)(?:\s+([($]?[\d,.]+[)]?))?\s*$`)

// TextSource reads observations from text lines extracted out of a budget
// PDF. Lines that don't carry an org code are skipped; the org code itself
// is recorded in the payload so a resolved match can be cross-checked
// against the record's code.
type TextSource struct {
	// Path is the extracted text file
	Path string

	// Year is the fiscal year the document covers
	Year string
}

// Observations reads the text file and yields one observation per
// structured line.
func (s *TextSource) Observations() ([]registry.Observation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.WrapIO("read", s.Path, err)
	}
	defer f.Close()

	sourceFile := filepath.Base(s.Path)
	var observations []registry.Observation

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		m := budgetLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		payload := make(map[string]float64)
		if code, ok := parseAmount(m[1]); ok {
			payload["orgCode"] = code
		}
		if m[3] != "" {
			if amount, ok := parseAmount(m[3]); ok {
				payload["budget"] = amount
			}
		}

		observations = append(observations, registry.Observation{
			RawName:    strings.TrimSpace(m[2]),
			SourceFile: sourceFile,
			SourceYear: s.Year,
			Payload:    payload,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO("read", s.Path, err)
	}

	return observations, nil
}
