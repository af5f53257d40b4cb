package sources

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/registry"
)

// CSVSource reads observations from a scraped CSV file. The header row maps
// columns: the name column is required, a year column is optional (falling
// back to the configured year), and every other numeric column lands in the
// observation payload under its header.
type CSVSource struct {
	// Path is the CSV file to read
	Path string

	// NameColumn is the header of the agency-name column
	NameColumn string

	// YearColumn is the header of the fiscal-year column, if the file has
	// one
	YearColumn string

	// Year is the fiscal year applied when YearColumn is empty or missing
	Year string
}

// Observations reads the CSV and yields one observation per row.
func (s *CSVSource) Observations() ([]registry.Observation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.WrapIO("read", s.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewParseError("csv", s.Path, "missing header row", err)
	}

	nameIdx := -1
	yearIdx := -1
	for i, col := range header {
		switch {
		case strings.EqualFold(col, s.NameColumn):
			nameIdx = i
		case s.YearColumn != "" && strings.EqualFold(col, s.YearColumn):
			yearIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, errors.NewParseError("csv", s.Path,
			"name column "+strconv.Quote(s.NameColumn)+" not in header", nil)
	}

	sourceFile := filepath.Base(s.Path)
	var observations []registry.Observation

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParseError("csv", s.Path, err.Error(), err)
		}

		rawName := strings.TrimSpace(row[nameIdx])
		if rawName == "" {
			continue
		}

		year := s.Year
		if yearIdx >= 0 && yearIdx < len(row) && strings.TrimSpace(row[yearIdx]) != "" {
			year = strings.TrimSpace(row[yearIdx])
		}

		payload := make(map[string]float64)
		for i, cell := range row {
			if i == nameIdx || i == yearIdx {
				continue
			}
			if v, ok := parseAmount(cell); ok {
				payload[strings.ToLower(strings.TrimSpace(header[i]))] = v
			}
		}

		observations = append(observations, registry.Observation{
			RawName:    rawName,
			SourceFile: sourceFile,
			SourceYear: year,
			Payload:    payload,
		})
	}

	return observations, nil
}

// parseAmount parses a human-formatted number: thousands separators and
// accounting-style parentheses for negatives.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
