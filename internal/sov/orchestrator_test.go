package sov

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/platform"
	"github.com/echomed/resonance/pkg/retry"
)

type fakeQuerier struct {
	mu          sync.Mutex
	calls       int
	failFirst   int
	reply       string
	delay       time.Duration
	inFlight    int
	maxInFlight int
}

func (f *fakeQuerier) Platform() platform.Platform { return platform.ChatGPT }

func (f *fakeQuerier) Query(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if call <= f.failFirst {
		return "", errors.New("upstream unavailable")
	}
	return f.reply, nil
}

// fastPolicy keeps the retry budget but drops the backoff to keep tests quick.
var fastPolicy = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Millisecond,
	MaxDelay:    time.Millisecond,
}

func newTestOrchestrator(reply string) (*Orchestrator, *fakeCompleter) {
	fc := &fakeCompleter{reply: reply}
	o := NewOrchestrator(NewClassifier(fc, zap.NewNop()), 3, zap.NewNop())
	o.policy = fastPolicy
	return o, fc
}

func TestRunReturnsRepeatOutcomes(t *testing.T) {
	o, _ := newTestOrchestrator(`{"is_mentioned": true}`)
	fq := &fakeQuerier{reply: "연세바른병원이 유명합니다."}

	outcomes := o.Run(context.Background(), "연세바른병원", "강남 치질 병원", fq, 5)

	if diff := cmp.Diff(5, len(outcomes)); diff != "" {
		t.Fatalf("outcome count mismatch (-want +got):\n%s", diff)
	}
	for i, out := range outcomes {
		if !out.IsMentioned {
			t.Errorf("outcome %d: expected mention", i)
		}
		if out.RawResponse == "" {
			t.Errorf("outcome %d: missing raw response", i)
		}
	}
	if fq.calls != 5 {
		t.Errorf("platform called %d times, want 5", fq.calls)
	}
}

func TestRunCapsInFlightProbes(t *testing.T) {
	o, _ := newTestOrchestrator(`{"is_mentioned": false}`)
	fq := &fakeQuerier{reply: "답변", delay: 20 * time.Millisecond}

	o.Run(context.Background(), "연세바른병원", "강남 치질 병원", fq, 10)

	if fq.maxInFlight > 3 {
		t.Errorf("observed %d concurrent probes, cap is 3", fq.maxInFlight)
	}
}

func TestRunFailedProbeYieldsNegativeOutcome(t *testing.T) {
	o, fc := newTestOrchestrator(`{"is_mentioned": true}`)
	fq := &fakeQuerier{failFirst: 1 << 30}

	outcomes := o.Run(context.Background(), "연세바른병원", "강남 치질 병원", fq, 4)

	if diff := cmp.Diff(4, len(outcomes)); diff != "" {
		t.Fatalf("outcome count mismatch (-want +got):\n%s", diff)
	}
	for i, out := range outcomes {
		if diff := cmp.Diff(Outcome{}, out); diff != "" {
			t.Errorf("outcome %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	// Every probe exhausts its three attempts.
	if fq.calls != 12 {
		t.Errorf("platform called %d times, want 12", fq.calls)
	}
	if fc.calls != 0 {
		t.Errorf("classifier called %d times for failed probes, want 0", fc.calls)
	}
}

func TestRunRecoversWithinRetryBudget(t *testing.T) {
	o, _ := newTestOrchestrator(`{"is_mentioned": true}`)
	fq := &fakeQuerier{failFirst: 2, reply: "연세바른병원 추천"}

	outcomes := o.Run(context.Background(), "연세바른병원", "강남 치질 병원", fq, 1)

	if diff := cmp.Diff(1, len(outcomes)); diff != "" {
		t.Fatalf("outcome count mismatch (-want +got):\n%s", diff)
	}
	if !outcomes[0].IsMentioned {
		t.Error("expected the third attempt to succeed and be classified")
	}
	if fq.calls != 3 {
		t.Errorf("platform called %d times, want 3", fq.calls)
	}
}
