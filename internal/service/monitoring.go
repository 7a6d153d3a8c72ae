package service

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echomed/resonance/internal/models"
)

// MonitoringService persists operator-visible errors and refreshes the daily
// pipeline throughput snapshot.
type MonitoringService struct {
	db       *gorm.DB
	location *time.Location
	logger   *zap.Logger
}

func NewMonitoringService(db *gorm.DB, location *time.Location, logger *zap.Logger) *MonitoringService {
	if location == nil {
		location = time.UTC
	}
	return &MonitoringService{
		db:       db,
		location: location,
		logger:   logger,
	}
}

func (m *MonitoringService) RecordError(level, source, title, message string, options ...ErrorLogOption) error {
	errorLog := &models.ErrorLog{
		Level:   level,
		Source:  source,
		Title:   title,
		Message: message,
	}

	for _, option := range options {
		option(errorLog)
	}

	return m.db.Create(errorLog).Error
}

type ErrorLogOption func(*models.ErrorLog)

func WithPlatform(platform string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.Platform = platform
	}
}

func WithTenant(tenantID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.TenantID = &tenantID
	}
}

func WithSlot(slotID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.SlotID = &slotID
	}
}

func WithContext(context map[string]interface{}) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if contextBytes, err := json.Marshal(context); err == nil {
			e.Context = string(contextBytes)
		}
	}
}

// ResolveError marks an error log entry as handled.
func (m *MonitoringService) ResolveError(id uint) error {
	now := time.Now()
	return m.db.Model(&models.ErrorLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"resolved":    true,
		"resolved_at": now,
	}).Error
}

// UpdatePipelineStats refreshes today's throughput snapshot. "Today" starts
// at midnight in the operational timezone, the same boundary the cadences use.
func (m *MonitoringService) UpdatePipelineStats() error {
	today := dateOnly(time.Now().In(m.location))

	var stats models.PipelineStats
	result := m.db.Where("date = ?", today).First(&stats)

	var totalTenants, activeTenants int64
	m.db.Model(&models.Tenant{}).Count(&totalTenants)
	m.db.Model(&models.Tenant{}).Where("status = ?", models.TenantActive).Count(&activeTenants)

	var slotsScheduled, slotsGenerated, slotsPublished int64
	m.db.Model(&models.ContentSlot{}).Count(&slotsScheduled)
	m.db.Model(&models.ContentSlot{}).Where("generated_at IS NOT NULL").Count(&slotsGenerated)
	m.db.Model(&models.ContentSlot{}).Where("status = ?", models.StatusPublished).Count(&slotsPublished)

	var outcomesToday, mentionsToday int64
	m.db.Model(&models.MeasurementOutcome{}).Where("measured_at >= ?", today).Count(&outcomesToday)
	m.db.Model(&models.MeasurementOutcome{}).Where("measured_at >= ? AND is_mentioned = ?", today, true).Count(&mentionsToday)

	var reportsCreated int64
	m.db.Model(&models.PeriodicReport{}).Count(&reportsCreated)

	var unresolvedErrors int64
	m.db.Model(&models.ErrorLog{}).Where("resolved = ?", false).Count(&unresolvedErrors)

	if result.Error == gorm.ErrRecordNotFound {
		stats = models.PipelineStats{
			Date:             today,
			TotalTenants:     int(totalTenants),
			ActiveTenants:    int(activeTenants),
			SlotsScheduled:   int(slotsScheduled),
			SlotsGenerated:   int(slotsGenerated),
			SlotsPublished:   int(slotsPublished),
			OutcomesToday:    int(outcomesToday),
			MentionsToday:    int(mentionsToday),
			ReportsCreated:   int(reportsCreated),
			UnresolvedErrors: int(unresolvedErrors),
		}
		return m.db.Create(&stats).Error
	}

	return m.db.Model(&stats).Updates(map[string]interface{}{
		"total_tenants":     totalTenants,
		"active_tenants":    activeTenants,
		"slots_scheduled":   slotsScheduled,
		"slots_generated":   slotsGenerated,
		"slots_published":   slotsPublished,
		"outcomes_today":    outcomesToday,
		"mentions_today":    mentionsToday,
		"reports_created":   reportsCreated,
		"unresolved_errors": unresolvedErrors,
	}).Error
}

// CleanupOldData drops stats snapshots and resolved errors older than the
// retention window.
func (m *MonitoringService) CleanupOldData(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	if err := m.db.Where("date < ?", cutoff).Delete(&models.PipelineStats{}).Error; err != nil {
		return err
	}
	return m.db.Where("resolved = ? AND created_at < ?", true, cutoff).Delete(&models.ErrorLog{}).Error
}
