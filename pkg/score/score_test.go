package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agencymap/agencymap/pkg/normalize"
)

func TestScore(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical raw names",
			a:    "CAL FIRE",
			b:    "CAL FIRE",
			want: 1.0,
		},
		{
			name: "case insensitive equality",
			a:    "cal fire",
			b:    "CAL FIRE",
			want: 1.0,
		},
		{
			name: "identical after normalization",
			a:    "California Department of Forestry & Fire Protection",
			b:    "Forestry and Fire Protection",
			want: 1.0,
		},
		{
			name: "no token overlap",
			a:    "Department of Motor Vehicles",
			b:    "Fish and Wildlife",
			want: 0,
		},
		{
			name: "empty input",
			a:    "",
			b:    "Motor Vehicles",
			want: 0,
		},
		{
			name: "exclusion rule forces zero despite overlap",
			a:    "University of California, Davis",
			b:    "California State University, Sacramento",
			want: 0,
		},
		{
			name: "exclusion wins over identical normalized forms",
			a:    "University of California",
			b:    "California State University",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreSymmetric(t *testing.T) {
	s := New()

	pairs := [][2]string{
		{"Forestry and Fire Protection", "Fire Protection"},
		{"Department of Motor Vehicles", "Motor Vehicles Dept"},
		{"University of California, Davis", "California State University"},
		{"Health Care Services", "Department of Health Care Services"},
	}

	for _, pair := range pairs {
		assert.InDelta(t, s.Score(pair[0], pair[1]), s.Score(pair[1], pair[0]), 1e-12,
			"Score(%q, %q) not symmetric", pair[0], pair[1])
	}
}

// The containment boost closes part of the gap to 1.0 but can never reach
// or cross it.
func TestScoreSubstringBoostBounded(t *testing.T) {
	boosted := New()
	flat := New(WithSubstringBoost(0))

	a := "Forestry and Fire Protection"
	b := "Fire Protection"

	low := flat.Score(a, b)
	high := boosted.Score(a, b)

	assert.Greater(t, high, low, "containment should raise the score")
	assert.Less(t, high, 1.0, "boost must not reach certainty")
}

func TestScoreRange(t *testing.T) {
	s := New()

	names := []string{
		"Department of Motor Vehicles",
		"Motor Vehicles",
		"Forestry and Fire Protection",
		"CAL FIRE",
		"Office of Emergency Services",
		"",
	}

	for _, a := range names {
		for _, b := range names {
			got := s.Score(a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestScoreWithExclusionsDisabled(t *testing.T) {
	s := New(WithExclusions(nil))

	// Without the UC/CSU rule the pair overlaps heavily on tokens.
	got := s.Score("University of California", "California State University")
	assert.Greater(t, got, 0.0)
}

func TestEditScore(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical normalized forms",
			a:    "Department of Motor Vehicles",
			b:    "Motor Vehicles",
			want: 1.0,
		},
		{
			name: "single character drift",
			a:    "forestry",
			b:    "forestri",
			want: 1 - 1.0/8,
		},
		{
			name: "empty side",
			a:    "",
			b:    "forestry",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.EditScore(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreCustomExclusionRule(t *testing.T) {
	rules := []normalize.ExclusionRule{
		{
			Name:   "north-vs-south",
			ClassA: []string{"northern"},
			ClassB: []string{"southern"},
		},
	}
	s := New(WithExclusions(rules))

	assert.Zero(t, s.Score("Northern Regional Center", "Southern Regional Center"))
	assert.Greater(t, s.Score("Northern Regional Center", "Regional Center"), 0.0)
}
