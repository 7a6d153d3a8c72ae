package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
	"github.com/echomed/resonance/internal/platform"
	"github.com/echomed/resonance/internal/sov"
)

// MeasurementService runs share-of-voice probe batches and persists the
// outcomes.
type MeasurementService struct {
	db           *gorm.DB
	registry     *platform.Registry
	orchestrator *sov.Orchestrator
	dispatcher   *Dispatcher
	notifier     *Notifier
	monitoring   *MonitoringService
	config       *config.MeasurementConfig
	logger       *zap.Logger
}

func NewMeasurementService(
	db *gorm.DB,
	registry *platform.Registry,
	orchestrator *sov.Orchestrator,
	dispatcher *Dispatcher,
	notifier *Notifier,
	monitoring *MonitoringService,
	cfg *config.MeasurementConfig,
	logger *zap.Logger,
) *MeasurementService {
	return &MeasurementService{
		db:           db,
		registry:     registry,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		notifier:     notifier,
		monitoring:   monitoring,
		config:       cfg,
		logger:       logger,
	}
}

// EnsureQueryMatrix generates and stores the tenant's query matrix if it has
// none yet, then returns the active queries.
func (m *MeasurementService) EnsureQueryMatrix(ctx context.Context, tenant *models.Tenant) ([]models.Query, error) {
	var count int64
	if err := m.db.WithContext(ctx).Model(&models.Query{}).
		Where("tenant_id = ?", tenant.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count queries: %w", err)
	}

	if count == 0 {
		texts := sov.GenerateQueryMatrix(m.logger, tenant.Regions, tenant.Specialties, tenant.Keywords)
		for _, text := range texts {
			q := models.Query{TenantID: tenant.ID, QueryText: text, IsActive: true}
			if err := m.db.WithContext(ctx).Create(&q).Error; err != nil {
				return nil, fmt.Errorf("failed to store query: %w", err)
			}
		}
		m.logger.Info("Query matrix generated",
			zap.Uint("tenant_id", tenant.ID), zap.Int("queries", len(texts)))
	}

	var queries []models.Query
	err := m.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenant.ID, true).
		Find(&queries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return queries, nil
}

// RunForTenant measures the tenant across every configured platform. Only
// tenants whose site work is done (ACTIVE or PENDING_DOMAIN) are measured.
func (m *MeasurementService) RunForTenant(ctx context.Context, tenantID uint) error {
	var tenant models.Tenant
	if err := m.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		return fmt.Errorf("tenant %d not found: %w", tenantID, err)
	}
	if tenant.Status != models.TenantActive && tenant.Status != models.TenantPendingDomain {
		m.logger.Info("Skipping measurement for tenant not in measurable state",
			zap.Uint("tenant_id", tenantID), zap.String("status", string(tenant.Status)))
		return nil
	}

	queries, err := m.EnsureQueryMatrix(ctx, &tenant)
	if err != nil {
		return err
	}
	if len(queries) > m.config.QueryLimit {
		queries = queries[:m.config.QueryLimit]
	}

	batchID := uuid.NewString()
	for _, q := range queries {
		for _, p := range m.registry.Available() {
			if _, err := m.measure(ctx, &tenant, &q, p, m.config.RepeatCount, batchID); err != nil {
				m.logger.Error("Measurement failed",
					zap.Uint("query_id", q.ID),
					zap.String("platform", string(p)),
					zap.Error(err))
				if recErr := m.monitoring.RecordError("ERROR", "measurement",
					"Probe batch failed", err.Error(),
					WithTenant(tenantID), WithPlatform(string(p))); recErr != nil {
					m.logger.Error("Failed to record error", zap.Error(recErr))
				}
			}
		}
	}

	m.logger.Info("Measurement completed",
		zap.Uint("tenant_id", tenantID),
		zap.String("batch_id", batchID),
		zap.Int("queries", len(queries)))
	return nil
}

// MeasureSample runs a reduced batch for the onboarding diagnosis: the first
// few queries against one platform. Returns the outcomes for aggregation.
func (m *MeasurementService) MeasureSample(ctx context.Context, tenant *models.Tenant, queries []models.Query, p platform.Platform, limit, repeat int) ([]sov.Outcome, error) {
	if len(queries) > limit {
		queries = queries[:limit]
	}

	batchID := uuid.NewString()
	var all []sov.Outcome
	for _, q := range queries {
		outcomes, err := m.measure(ctx, tenant, &q, p, repeat, batchID)
		if err != nil {
			return nil, err
		}
		all = append(all, outcomes...)
	}
	return all, nil
}

// WeeklyMonitoring queues a measurement task for every active tenant.
func (m *MeasurementService) WeeklyMonitoring(ctx context.Context) error {
	var tenants []models.Tenant
	if err := m.db.WithContext(ctx).
		Where("status = ?", models.TenantActive).
		Find(&tenants).Error; err != nil {
		return fmt.Errorf("failed to load active tenants: %w", err)
	}

	queued := 0
	for _, t := range tenants {
		if err := m.dispatcher.Enqueue(QueueSov, Task{Name: TaskTenantMeasurement, TenantID: t.ID}); err != nil {
			m.logger.Error("Failed to queue measurement",
				zap.Uint("tenant_id", t.ID), zap.Error(err))
			continue
		}
		queued++
	}

	m.notifier.MonitoringDone(ctx, len(tenants), queued)
	m.logger.Info("Weekly monitoring queued",
		zap.Int("tenants", len(tenants)), zap.Int("queued", queued))
	return nil
}

func (m *MeasurementService) measure(ctx context.Context, tenant *models.Tenant, q *models.Query, p platform.Platform, repeat int, batchID string) ([]sov.Outcome, error) {
	querier, err := m.registry.Get(p)
	if err != nil {
		return nil, err
	}

	outcomes := m.orchestrator.Run(ctx, tenant.Name, q.QueryText, querier, repeat)

	rows := make([]models.MeasurementOutcome, 0, len(outcomes))
	for _, out := range outcomes {
		rows = append(rows, models.MeasurementOutcome{
			TenantID:       tenant.ID,
			QueryID:        q.ID,
			BatchID:        batchID,
			Platform:       string(p),
			IsMentioned:    out.IsMentioned,
			MentionRank:    out.MentionRank,
			Sentiment:      out.Sentiment,
			MentionContext: out.MentionContext,
			RawResponse:    out.RawResponse,
		})
	}
	if err := m.db.WithContext(ctx).CreateInBatches(rows, 50).Error; err != nil {
		return nil, fmt.Errorf("failed to store outcomes: %w", err)
	}
	return outcomes, nil
}
