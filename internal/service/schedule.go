package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echomed/resonance/internal/calendar"
	"github.com/echomed/resonance/internal/models"
)

// ScheduleService owns publish schedules and the slot calendars derived from
// them.
type ScheduleService struct {
	db         *gorm.DB
	logger     *zap.Logger
	monitoring *MonitoringService
}

func NewScheduleService(db *gorm.DB, monitoring *MonitoringService, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		db:         db,
		logger:     logger,
		monitoring: monitoring,
	}
}

// CreateSchedule activates a new publish schedule for the tenant and creates
// the slots of the month activeFrom falls in. Any previously active schedule
// is deactivated in the same transaction, so one tenant never runs two
// calendars at once. Returns the schedule and the number of slots created.
func (s *ScheduleService) CreateSchedule(ctx context.Context, tenantID uint, plan models.Plan, publishDays []int, activeFrom time.Time) (*models.PublishSchedule, int, error) {
	days, err := normalizePublishDays(publishDays)
	if err != nil {
		return nil, 0, err
	}
	if _, ok := models.PlanDistribution[plan]; !ok {
		return nil, 0, fmt.Errorf("unknown plan %q", plan)
	}

	var schedule models.PublishSchedule
	var created int

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			return fmt.Errorf("tenant %d not found: %w", tenantID, err)
		}

		if err := tx.Model(&models.PublishSchedule{}).
			Where("tenant_id = ? AND is_active = ?", tenantID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate previous schedules: %w", err)
		}

		schedule = models.PublishSchedule{
			TenantID:    tenantID,
			Plan:        plan,
			PublishDays: days,
			ActiveFrom:  activeFrom,
			IsActive:    true,
		}
		if err := tx.Create(&schedule).Error; err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}

		n, err := s.createMonthSlots(tx, &schedule, activeFrom)
		if err != nil {
			return err
		}
		created = n

		updates := map[string]interface{}{"schedule_set": true}
		if tenant.SiteLive {
			updates["status"] = models.TenantActive
		}
		return tx.Model(&tenant).Updates(updates).Error
	})
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("Publish schedule created",
		zap.Uint("tenant_id", tenantID),
		zap.String("plan", string(plan)),
		zap.Int("slots_created", created))
	return &schedule, created, nil
}

// GenerateMonthSlots creates the slots of the month ref falls in for one
// schedule. It is idempotent: a month that already has slots for this
// schedule is left alone.
func (s *ScheduleService) GenerateMonthSlots(ctx context.Context, schedule *models.PublishSchedule, ref time.Time) (int, error) {
	var created int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		monthEnd := monthStart.AddDate(0, 1, 0)

		var existing int64
		if err := tx.Model(&models.ContentSlot{}).
			Where("schedule_id = ? AND scheduled_date >= ? AND scheduled_date < ?",
				schedule.ID, monthStart, monthEnd).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			s.logger.Info("Slots already exist, skipping generation",
				zap.Uint("schedule_id", schedule.ID),
				zap.String("month", monthStart.Format("2006-01")))
			return nil
		}

		n, err := s.createMonthSlots(tx, schedule, ref)
		created = n
		return err
	})
	return created, err
}

// RunMonthlySlotGeneration creates next month's slots for every active
// schedule of an active tenant. Per-schedule failures are recorded and do not
// stop the run.
func (s *ScheduleService) RunMonthlySlotGeneration(ctx context.Context, now time.Time) error {
	nextMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)

	var schedules []models.PublishSchedule
	if err := s.db.WithContext(ctx).
		Joins("JOIN tenants ON tenants.id = publish_schedules.tenant_id").
		Where("publish_schedules.is_active = ? AND tenants.status = ?", true, models.TenantActive).
		Find(&schedules).Error; err != nil {
		return fmt.Errorf("failed to load active schedules: %w", err)
	}

	for i := range schedules {
		schedule := &schedules[i]
		if _, err := s.GenerateMonthSlots(ctx, schedule, nextMonth); err != nil {
			s.logger.Error("Slot generation failed",
				zap.Uint("schedule_id", schedule.ID), zap.Error(err))
			if recErr := s.monitoring.RecordError("ERROR", "slot_generation",
				"Monthly slot generation failed", err.Error(),
				WithTenant(schedule.TenantID)); recErr != nil {
				s.logger.Error("Failed to record error", zap.Error(recErr))
			}
		}
	}
	return nil
}

func (s *ScheduleService) createMonthSlots(tx *gorm.DB, schedule *models.PublishSchedule, ref time.Time) (int, error) {
	plan, err := calendar.BuildMonthPlan(schedule.Plan, schedule.PublishDays, ref)
	if err != nil {
		return 0, err
	}

	if plan.Truncated {
		s.logger.Warn("Not enough publish dates for the full plan",
			zap.Uint("schedule_id", schedule.ID),
			zap.Int("slots", len(plan.Slots)),
			zap.Int("plan_total", plan.Total),
			zap.String("month", ref.Format("2006-01")))
		if recErr := s.monitoring.RecordError("WARN", "slot_generation",
			"Calendar shorter than plan volume",
			fmt.Sprintf("%d of %d slots allocated for %s", len(plan.Slots), plan.Total, ref.Format("2006-01")),
			WithTenant(schedule.TenantID)); recErr != nil {
			s.logger.Error("Failed to record warning", zap.Error(recErr))
		}
	}

	for _, slot := range plan.Slots {
		item := models.ContentSlot{
			TenantID:      schedule.TenantID,
			ScheduleID:    schedule.ID,
			ContentType:   slot.ContentType,
			SequenceNo:    slot.SequenceNo,
			TotalCount:    plan.Total,
			ScheduledDate: slot.Date,
			Status:        models.StatusDraft,
		}
		if err := tx.Create(&item).Error; err != nil {
			return 0, fmt.Errorf("failed to create slot: %w", err)
		}
	}
	return len(plan.Slots), nil
}

func normalizePublishDays(days []int) ([]int, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("publish days must not be empty")
	}
	seen := make(map[int]bool)
	var out []int
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid publish day %d, must be 0-6", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}
