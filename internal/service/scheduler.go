package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/config"
)

// Scheduler fires the recurring pipeline cadences by enqueueing tasks on the
// dispatcher. All cadences run in the configured operational timezone.
//
// The monthly-report entry fires on the 28th through the 31st because cron
// cannot express "last day of month"; the report service itself skips every
// day but the real last one.
type Scheduler struct {
	config     *config.SchedulerConfig
	logger     *zap.Logger
	dispatcher *Dispatcher
	cron       *cron.Cron
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, dispatcher *Dispatcher) *Scheduler {
	return &Scheduler{
		config:     cfg,
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// Location resolves the operational timezone.
func (s *Scheduler) Location() (*time.Location, error) {
	return time.LoadLocation(s.config.Timezone)
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	loc, err := s.Location()
	if err != nil {
		s.logger.Error("Invalid scheduler timezone",
			zap.String("timezone", s.config.Timezone), zap.Error(err))
		return err
	}

	s.cron = cron.New(cron.WithLocation(loc))

	entries := []struct {
		spec  string
		queue string
		task  string
	}{
		{"0 23 * * *", QueueContent, TaskNightlyContent},
		{"0 8 * * *", QueueContent, TaskMorningNotify},
		{"0 2 * * 1", QueueSov, TaskWeeklyMonitoring},
		{"0 23 28-31 * *", QueueReports, TaskMonthlyReports},
		{"0 0 25 * *", QueueDefault, TaskSlotGeneration},
	}

	for _, e := range entries {
		queue, task := e.queue, e.task
		if _, err := s.cron.AddFunc(e.spec, func() {
			s.logger.Info("Cadence fired", zap.String("task", task))
			if err := s.dispatcher.Enqueue(queue, Task{Name: task}); err != nil {
				s.logger.Error("Failed to enqueue cadence task",
					zap.String("task", task), zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("timezone", s.config.Timezone),
		zap.Int("cadences", len(entries)))

	go func() {
		<-ctx.Done()
		s.logger.Info("Scheduler context cancelled")
		s.cron.Stop()
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.logger.Info("Scheduler shutdown completed")
}
