package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return Transient(errors.New("boom"))
	})

	if err == nil {
		t.Fatal("expected terminal error after exhausting attempts")
	}
	if diff := cmp.Diff(3, calls); diff != "" {
		t.Errorf("attempt count mismatch (-want +got):\n%s", diff)
	}
}

func TestDoSucceedsMidBudget(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return Transient(errors.New("transient"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(2, calls); diff != "" {
		t.Errorf("attempt count mismatch (-want +got):\n%s", diff)
	}
}

func TestDoNonRetryableErrorStops(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return errors.New("permanent")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if diff := cmp.Diff(1, calls); diff != "" {
		t.Errorf("permanent errors must not be retried (-want +got):\n%s", diff)
	}
}
