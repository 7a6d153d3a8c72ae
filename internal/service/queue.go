package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Queue names. Each queue runs its tasks serially so a slow report render
// never starves content generation.
const (
	QueueContent = "content"
	QueueSov     = "sov"
	QueueReports = "reports"
	QueueDefault = "default"
)

// Task names routed through the dispatcher.
const (
	TaskNightlyContent    = "nightly_content_generation"
	TaskMorningNotify     = "morning_content_notification"
	TaskWeeklyMonitoring  = "weekly_monitoring"
	TaskTenantMeasurement = "tenant_measurement"
	TaskMonthlyReports    = "monthly_reports"
	TaskSlotGeneration    = "monthly_slot_generation"
	TaskInitialReport     = "initial_report"
	TaskSiteBuild         = "site_build"
)

// Task is one unit of queued work. TenantID is zero for fleet-wide tasks.
type Task struct {
	Name     string
	TenantID uint
}

// Handler executes one task.
type Handler func(ctx context.Context, task Task) error

// Dispatcher is the in-process task queue: named channels drained by one
// worker each, with a task-name handler registry.
type Dispatcher struct {
	logger   *zap.Logger
	handlers map[string]Handler
	queues   map[string]chan Task
	wg       sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	queues := make(map[string]chan Task)
	for _, name := range []string{QueueContent, QueueSov, QueueReports, QueueDefault} {
		queues[name] = make(chan Task, 256)
	}
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[string]Handler),
		queues:   queues,
	}
}

func (d *Dispatcher) RegisterHandler(taskName string, h Handler) error {
	if _, exists := d.handlers[taskName]; exists {
		return fmt.Errorf("handler for task %s already registered", taskName)
	}
	d.handlers[taskName] = h
	return nil
}

// Enqueue places a task on the named queue without blocking. A full queue is
// an error the caller decides how to surface.
func (d *Dispatcher) Enqueue(queue string, task Task) error {
	ch, exists := d.queues[queue]
	if !exists {
		return fmt.Errorf("unknown queue %q", queue)
	}
	if _, exists := d.handlers[task.Name]; !exists {
		return fmt.Errorf("no handler registered for task %s", task.Name)
	}
	select {
	case ch <- task:
		return nil
	default:
		return fmt.Errorf("queue %s is full", queue)
	}
}

// Start launches one worker per queue. Workers exit when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for name, ch := range d.queues {
		d.wg.Add(1)
		go d.work(ctx, name, ch)
	}
	d.logger.Info("Task dispatcher started", zap.Int("queues", len(d.queues)))
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context, queue string, ch chan Task) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Queue worker stopped", zap.String("queue", queue))
			return
		case task := <-ch:
			handler := d.handlers[task.Name]
			if err := handler(ctx, task); err != nil {
				d.logger.Error("Task failed",
					zap.String("queue", queue),
					zap.String("task", task.Name),
					zap.Uint("tenant_id", task.TenantID),
					zap.Error(err))
			}
		}
	}
}
