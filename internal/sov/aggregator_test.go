package sov

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCalculateSoV(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome
		want     float64
	}{
		{"empty set", nil, 0.0},
		{"no mentions", outcomes(0, 5), 0.0},
		{"three of ten", outcomes(3, 7), 30.0},
		{"all mentioned", outcomes(4, 0), 100.0},
		{"one of three rounds to two decimals", outcomes(1, 2), 33.33},
		{"two of three rounds up", outcomes(2, 1), 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, CalculateSoV(tt.outcomes)); diff != "" {
				t.Errorf("sov mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSovFromCountsZeroTotal(t *testing.T) {
	if diff := cmp.Diff(0.0, SovFromCounts(0, 0)); diff != "" {
		t.Errorf("sov mismatch (-want +got):\n%s", diff)
	}
}

func TestDelta(t *testing.T) {
	prev := 30.0
	tests := []struct {
		name     string
		current  float64
		previous *float64
		want     *float64
	}{
		{"no baseline", 25.0, nil, nil},
		{"up", 42.86, &prev, floatPtr(12.9)},
		{"down", 21.4, &prev, floatPtr(-8.6)},
		{"flat", 30.0, &prev, floatPtr(0.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Delta(tt.current, tt.previous)); diff != "" {
				t.Errorf("delta mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func floatPtr(v float64) *float64 { return &v }

// outcomes builds mentioned positives followed by negatives.
func outcomes(mentioned, notMentioned int) []Outcome {
	var out []Outcome
	for i := 0; i < mentioned; i++ {
		out = append(out, Outcome{Verdict: Verdict{IsMentioned: true}})
	}
	for i := 0; i < notMentioned; i++ {
		out = append(out, Outcome{})
	}
	return out
}
