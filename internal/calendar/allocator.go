// Package calendar expands a publish schedule into the ordered content slots
// of one target month. It is pure: persistence of the produced slots is the
// caller's responsibility.
package calendar

import (
	"fmt"
	"time"

	"github.com/echomed/resonance/internal/models"
)

// Slot is one planned production unit before persistence.
type Slot struct {
	Date        time.Time
	ContentType models.ContentType
	SequenceNo  int
}

// MonthPlan is the allocation result for one month. Total always reports the
// full plan volume; when the month offers fewer publish dates than the plan
// requires, Slots is shorter than Total and Truncated is set. Callers must
// treat Truncated as a warning condition.
type MonthPlan struct {
	Slots     []Slot
	Total     int
	Truncated bool
}

// BuildMonthPlan allocates the slots of the month containing ref.
// publishDays uses 0=Monday .. 6=Sunday. The weekday set is validated at
// schedule creation; an empty set reaching this point is a programming error
// and is rejected.
func BuildMonthPlan(plan models.Plan, publishDays []int, ref time.Time) (MonthPlan, error) {
	dist, ok := models.PlanDistribution[plan]
	if !ok {
		return MonthPlan{}, fmt.Errorf("unknown plan %q", plan)
	}
	if len(publishDays) == 0 {
		return MonthPlan{}, fmt.Errorf("empty publish day set")
	}
	return buildWithDistribution(dist, publishDays, ref), nil
}

func buildWithDistribution(dist []models.TypeCount, publishDays []int, ref time.Time) MonthPlan {
	typeSeq := expand(dist)
	dates := publishDates(publishDays, ref)

	n := len(typeSeq)
	if len(dates) < n {
		n = len(dates)
	}

	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, Slot{
			Date:        dates[i],
			ContentType: typeSeq[i],
			SequenceNo:  i + 1,
		})
	}

	return MonthPlan{
		Slots:     slots,
		Total:     len(typeSeq),
		Truncated: len(slots) < len(typeSeq),
	}
}

// expand flattens a distribution table into the type sequence, repeating each
// type count times in declared order.
func expand(dist []models.TypeCount) []models.ContentType {
	var seq []models.ContentType
	for _, tc := range dist {
		for i := 0; i < tc.Count; i++ {
			seq = append(seq, tc.Type)
		}
	}
	return seq
}

// publishDates lists every date of ref's month whose weekday is in the set,
// ascending.
func publishDates(publishDays []int, ref time.Time) []time.Time {
	days := make(map[int]bool, len(publishDays))
	for _, d := range publishDays {
		days[d] = true
	}

	loc := ref.Location()
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)

	var dates []time.Time
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		if days[mondayIndexed(day.Weekday())] {
			dates = append(dates, day)
		}
	}
	return dates
}

// mondayIndexed converts Go's Sunday-based weekday to the stored
// 0=Monday .. 6=Sunday convention.
func mondayIndexed(w time.Weekday) int {
	return (int(w) + 6) % 7
}
