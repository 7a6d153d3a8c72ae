package sov

import "math"

// CalculateSoV is the share-of-voice of a result set: mentioned probes over
// total probes as a percentage, rounded to two decimals. An empty set is 0.0,
// never a division error.
func CalculateSoV(outcomes []Outcome) float64 {
	mentioned := 0
	for _, out := range outcomes {
		if out.IsMentioned {
			mentioned++
		}
	}
	return SovFromCounts(mentioned, len(outcomes))
}

// SovFromCounts computes the same percentage from pre-aggregated counts, for
// callers reading persisted outcomes.
func SovFromCounts(mentioned, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return round2(float64(mentioned) / float64(total) * 100)
}

// Delta is the month-over-month SoV movement, rounded to one decimal. It is
// nil when there is no previous value: a missing baseline is not a zero
// baseline.
func Delta(current float64, previous *float64) *float64 {
	if previous == nil {
		return nil
	}
	d := math.Round((current-*previous)*10) / 10
	return &d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
