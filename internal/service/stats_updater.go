package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatsUpdater refreshes the pipeline stats snapshot on a fixed interval.
type StatsUpdater struct {
	monitoringService *MonitoringService
	logger            *zap.Logger
	ticker            *time.Ticker
	done              chan bool
}

func NewStatsUpdater(monitoringService *MonitoringService, logger *zap.Logger, interval time.Duration) *StatsUpdater {
	return &StatsUpdater{
		monitoringService: monitoringService,
		logger:            logger,
		ticker:            time.NewTicker(interval),
		done:              make(chan bool),
	}
}

func (s *StatsUpdater) Start(ctx context.Context) {
	go func() {
		s.logger.Info("Starting stats updater")
		for {
			select {
			case <-s.done:
				s.logger.Info("Stats updater stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Stats updater stopped due to context cancellation")
				return
			case <-s.ticker.C:
				s.updateStats()
			}
		}
	}()
}

func (s *StatsUpdater) Stop() {
	s.ticker.Stop()
	close(s.done)
}

func (s *StatsUpdater) updateStats() {
	s.logger.Debug("Updating statistics")

	if err := s.monitoringService.UpdatePipelineStats(); err != nil {
		s.logger.Error("Failed to update pipeline stats", zap.Error(err))
	}

	// Keep last 90 days
	if err := s.monitoringService.CleanupOldData(90); err != nil {
		s.logger.Error("Failed to cleanup old data", zap.Error(err))
	}

	s.logger.Debug("Statistics updated successfully")
}
