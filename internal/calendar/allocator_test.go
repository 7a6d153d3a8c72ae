package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/echomed/resonance/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// February 2027 starts on a Monday and has 28 days, so every weekday occurs
// exactly four times.
var feb2027 = date(2027, time.February, 1)

func TestBuildWithDistributionPairsDatesAndTypes(t *testing.T) {
	dist := []models.TypeCount{
		{Type: models.ContentFAQ, Count: 2},
		{Type: models.ContentDisease, Count: 1},
	}
	// Monday and Thursday
	plan := buildWithDistribution(dist, []int{0, 3}, feb2027)

	want := MonthPlan{
		Slots: []Slot{
			{Date: date(2027, time.February, 1), ContentType: models.ContentFAQ, SequenceNo: 1},
			{Date: date(2027, time.February, 4), ContentType: models.ContentFAQ, SequenceNo: 2},
			{Date: date(2027, time.February, 8), ContentType: models.ContentDisease, SequenceNo: 3},
		},
		Total: 3,
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMonthPlanFullAllocation(t *testing.T) {
	// PLAN_16 needs 16 dates; four publish weekdays in February 2027 give
	// exactly 16.
	plan, err := BuildMonthPlan(models.Plan16, []int{0, 1, 3, 4}, feb2027)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if diff := cmp.Diff(16, plan.Total); diff != "" {
		t.Errorf("total mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(16, len(plan.Slots)); diff != "" {
		t.Errorf("slot count mismatch (-want +got):\n%s", diff)
	}
	if plan.Truncated {
		t.Error("expected no truncation with enough publish dates")
	}

	// Sequence numbers are contiguous 1..N in ascending date order.
	for i, s := range plan.Slots {
		if s.SequenceNo != i+1 {
			t.Errorf("slot %d: sequence %d, want %d", i, s.SequenceNo, i+1)
		}
		if i > 0 && !plan.Slots[i-1].Date.Before(s.Date) {
			t.Errorf("slot %d: date %v not after previous %v", i, s.Date, plan.Slots[i-1].Date)
		}
	}

	// First slots follow the distribution's declared order: FAQ x4 first.
	for i := 0; i < 4; i++ {
		if plan.Slots[i].ContentType != models.ContentFAQ {
			t.Errorf("slot %d: type %s, want FAQ", i, plan.Slots[i].ContentType)
		}
	}
}

func TestBuildMonthPlanTruncatesOnTooFewDates(t *testing.T) {
	// One publish weekday gives 4 dates for a 12-piece plan: the excess is
	// dropped, the total still reports the full plan volume.
	plan, err := BuildMonthPlan(models.Plan12, []int{2}, feb2027)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if diff := cmp.Diff(4, len(plan.Slots)); diff != "" {
		t.Errorf("slot count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(12, plan.Total); diff != "" {
		t.Errorf("total must report the plan volume (-want +got):\n%s", diff)
	}
	if !plan.Truncated {
		t.Error("expected truncation warning")
	}
}

func TestBuildMonthPlanRejectsEmptyWeekdaySet(t *testing.T) {
	if _, err := BuildMonthPlan(models.Plan8, nil, feb2027); err == nil {
		t.Error("expected error for empty weekday set")
	}
}

func TestBuildMonthPlanRejectsUnknownPlan(t *testing.T) {
	if _, err := BuildMonthPlan(models.Plan("PLAN_99"), []int{0}, feb2027); err == nil {
		t.Error("expected error for unknown plan")
	}
}

func TestBuildMonthPlanMidMonthReferenceCoversWholeMonth(t *testing.T) {
	// The reference instant may be any day of the target month.
	fromFirst, err := BuildMonthPlan(models.Plan8, []int{1, 4}, feb2027)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	fromMid, err := BuildMonthPlan(models.Plan8, []int{1, 4}, date(2027, time.February, 17))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff(fromFirst, fromMid); diff != "" {
		t.Errorf("reference day must not change the plan (-want +got):\n%s", diff)
	}
}

func TestPublishDatesWeekdayConvention(t *testing.T) {
	// 6 = Sunday in the stored convention.
	dates := publishDates([]int{6}, feb2027)
	want := []time.Time{
		date(2027, time.February, 7),
		date(2027, time.February, 14),
		date(2027, time.February, 21),
		date(2027, time.February, 28),
	}
	if diff := cmp.Diff(want, dates); diff != "" {
		t.Errorf("sunday dates mismatch (-want +got):\n%s", diff)
	}
}
