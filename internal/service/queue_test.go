package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDispatcherRunsQueuedTasks(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var mu sync.Mutex
	var seen []uint
	done := make(chan struct{})

	err := d.RegisterHandler(TaskTenantMeasurement, func(_ context.Context, task Task) error {
		mu.Lock()
		seen = append(seen, task.TenantID)
		if len(seen) == 3 {
			close(done)
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, id := range []uint{1, 2, 3} {
		if err := d.Enqueue(QueueSov, Task{Name: TaskTenantMeasurement, TenantID: id}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks not processed in time")
	}
}

func TestDispatcherRejectsUnknownQueue(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	if err := d.RegisterHandler(TaskSiteBuild, func(context.Context, Task) error { return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := d.Enqueue("no-such-queue", Task{Name: TaskSiteBuild}); err == nil {
		t.Error("expected error for unknown queue")
	}
}

func TestDispatcherRejectsUnhandledTask(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	if err := d.Enqueue(QueueDefault, Task{Name: "never-registered"}); err == nil {
		t.Error("expected error for task without a handler")
	}
}

func TestDispatcherRejectsDuplicateHandler(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	h := func(context.Context, Task) error { return nil }
	if err := d.RegisterHandler(TaskMonthlyReports, h); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := d.RegisterHandler(TaskMonthlyReports, h); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestDispatcherSurvivesHandlerErrors(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	done := make(chan struct{})
	calls := 0
	err := d.RegisterHandler(TaskNightlyContent, func(context.Context, Task) error {
		calls++
		if calls == 2 {
			close(done)
			return nil
		}
		return errors.New("generation failed")
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 2; i++ {
		if err := d.Enqueue(QueueContent, Task{Name: TaskNightlyContent}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not continue past a failing task")
	}
}
