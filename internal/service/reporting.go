package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
	"github.com/echomed/resonance/internal/platform"
	"github.com/echomed/resonance/internal/sov"
	"github.com/echomed/resonance/pkg/util"
)

// The onboarding diagnosis trades coverage for speed: a few queries, a few
// probes each, one platform.
const (
	initialQuerySample = 5
	initialRepeat      = 5
)

const reportTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.TenantName}} {{.PeriodLabel}} AI 검색 리포트</title>
</head>
<body>
<h1>{{.TenantName}}</h1>
<h2>{{.PeriodLabel}} AI 검색 노출 리포트 ({{.Kind}})</h2>
<table>
<tr><th>통합 SoV</th><td>{{printf "%.1f" .SovPct}}%</td></tr>
{{if .HasPrev}}<tr><th>전월 SoV</th><td>{{printf "%.1f" .PrevSovPct}}%</td></tr>{{end}}
{{if .HasChange}}<tr><th>전월 대비</th><td>{{printf "%+.1f" .ChangePct}}%p</td></tr>{{end}}
<tr><th>발행 콘텐츠</th><td>{{.PublishedCount}}편</td></tr>
</table>
</body>
</html>
`

// ReportService produces the onboarding diagnosis and the recurring monthly
// reports.
type ReportService struct {
	db          *gorm.DB
	measurement *MeasurementService
	dispatcher  *Dispatcher
	notifier    *Notifier
	monitoring  *MonitoringService
	config      *config.ReportConfig
	logger      *zap.Logger
	tmpl        *template.Template
}

func NewReportService(
	db *gorm.DB,
	measurement *MeasurementService,
	dispatcher *Dispatcher,
	notifier *Notifier,
	monitoring *MonitoringService,
	cfg *config.ReportConfig,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		db:          db,
		measurement: measurement,
		dispatcher:  dispatcher,
		notifier:    notifier,
		monitoring:  monitoring,
		config:      cfg,
		logger:      logger,
		tmpl:        template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// RunInitialReport produces the onboarding diagnosis for a freshly profiled
// tenant: query matrix, a sample measurement, the report document, then a
// queued site build.
func (r *ReportService) RunInitialReport(ctx context.Context, tenantID uint) error {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		return fmt.Errorf("tenant %d not found: %w", tenantID, err)
	}

	now := time.Now()
	exists, err := r.reportExists(ctx, tenantID, now.Year(), int(now.Month()), models.ReportInitial)
	if err != nil {
		return err
	}
	if exists {
		r.logger.Warn("Initial report already exists, skipping",
			zap.Uint("tenant_id", tenantID))
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&tenant).
		Update("status", models.TenantAnalyzing).Error; err != nil {
		return fmt.Errorf("failed to update tenant status: %w", err)
	}

	queries, err := r.measurement.EnsureQueryMatrix(ctx, &tenant)
	if err != nil {
		return err
	}

	outcomes, err := r.measurement.MeasureSample(ctx, &tenant, queries, platform.ChatGPT, initialQuerySample, initialRepeat)
	if err != nil {
		return err
	}
	sovPct := sov.CalculateSoV(outcomes)

	path, err := r.writeReport(&tenant, models.ReportInitial, now, sovPct, nil, nil, 0)
	if err != nil {
		return err
	}

	report := models.PeriodicReport{
		TenantID:    tenantID,
		PeriodYear:  now.Year(),
		PeriodMonth: int(now.Month()),
		Kind:        models.ReportInitial,
		ReportPath:  path,
		SovPct:      sovPct,
	}
	if err := r.db.WithContext(ctx).Create(&report).Error; err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&tenant).Updates(map[string]interface{}{
		"initial_report_done": true,
		"status":              models.TenantBuilding,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	r.notifier.InitialReportReady(ctx, tenant.Name, sovPct, path)

	if err := r.dispatcher.Enqueue(QueueDefault, Task{Name: TaskSiteBuild, TenantID: tenantID}); err != nil {
		r.logger.Error("Failed to queue site build",
			zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
	return nil
}

// RunMonthlyReports writes the month's report for every active tenant. The
// cadence fires on the 28th through the 31st; only the run on the actual last
// day proceeds. Per-tenant failures are recorded and do not stop the run.
func (r *ReportService) RunMonthlyReports(ctx context.Context, now time.Time) error {
	if !isLastDayOfMonth(now) {
		r.logger.Info("Not the last day of the month, skipping monthly reports",
			zap.String("date", now.Format("2006-01-02")))
		return nil
	}

	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.TenantActive).
		Find(&tenants).Error; err != nil {
		return fmt.Errorf("failed to load active tenants: %w", err)
	}

	for i := range tenants {
		tenant := &tenants[i]
		if err := r.monthlyReportFor(ctx, tenant, now); err != nil {
			r.logger.Error("Monthly report failed",
				zap.String("tenant", tenant.Name), zap.Error(err))
			if recErr := r.monitoring.RecordError("ERROR", "monthly_report",
				"Monthly report generation failed", err.Error(),
				WithTenant(tenant.ID)); recErr != nil {
				r.logger.Error("Failed to record error", zap.Error(recErr))
			}
		}
	}
	return nil
}

func (r *ReportService) monthlyReportFor(ctx context.Context, tenant *models.Tenant, now time.Time) error {
	exists, err := r.reportExists(ctx, tenant.ID, now.Year(), int(now.Month()), models.ReportMonthly)
	if err != nil {
		return err
	}
	if exists {
		r.logger.Warn("Monthly report already exists, skipping",
			zap.String("tenant", tenant.Name),
			zap.String("period", now.Format("2006-01")))
		return nil
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)
	prevMonth := monthStart.AddDate(0, -1, 0)

	sovPct, sampled, err := r.windowSov(ctx, tenant.ID, monthStart, nextMonth)
	if err != nil {
		return err
	}
	if !sampled {
		sovPct = 0.0
	}

	var prevSov *float64
	prevPct, prevSampled, err := r.windowSov(ctx, tenant.ID, prevMonth, monthStart)
	if err != nil {
		return err
	}
	if prevSampled {
		prevSov = &prevPct
	}
	change := sov.Delta(sovPct, prevSov)

	var publishedCount int64
	err = r.db.WithContext(ctx).Model(&models.ContentSlot{}).
		Where("tenant_id = ? AND status = ? AND published_at >= ? AND published_at < ?",
			tenant.ID, models.StatusPublished, monthStart, nextMonth).
		Count(&publishedCount).Error
	if err != nil {
		return fmt.Errorf("failed to count published content: %w", err)
	}

	path, err := r.writeReport(tenant, models.ReportMonthly, now, sovPct, prevSov, change, int(publishedCount))
	if err != nil {
		return err
	}

	report := models.PeriodicReport{
		TenantID:       tenant.ID,
		PeriodYear:     now.Year(),
		PeriodMonth:    int(now.Month()),
		Kind:           models.ReportMonthly,
		ReportPath:     path,
		SovPct:         sovPct,
		PrevSovPct:     prevSov,
		ChangePct:      change,
		PublishedCount: int(publishedCount),
	}
	if err := r.db.WithContext(ctx).Create(&report).Error; err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	r.notifier.MonthlyReportReady(ctx, tenant.Name, now.Year(), int(now.Month()), sovPct, change, path)
	return nil
}

// windowSov aggregates outcomes in [start, end). The second return reports
// whether the window had any outcomes at all.
func (r *ReportService) windowSov(ctx context.Context, tenantID uint, start, end time.Time) (float64, bool, error) {
	var total, mentioned int64
	err := r.db.WithContext(ctx).Model(&models.MeasurementOutcome{}).
		Where("tenant_id = ? AND measured_at >= ? AND measured_at < ?", tenantID, start, end).
		Count(&total).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to count outcomes: %w", err)
	}
	if total == 0 {
		return 0, false, nil
	}

	err = r.db.WithContext(ctx).Model(&models.MeasurementOutcome{}).
		Where("tenant_id = ? AND measured_at >= ? AND measured_at < ? AND is_mentioned = ?",
			tenantID, start, end, true).
		Count(&mentioned).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to count mentions: %w", err)
	}

	return sov.SovFromCounts(int(mentioned), int(total)), true, nil
}

// SovSummary is the admin dashboard's current-month view.
type SovSummary struct {
	Period    string             `json:"period"`
	SovPct    float64            `json:"sov_pct"`
	Outcomes  int64              `json:"outcomes"`
	Mentions  int64              `json:"mentions"`
	Platforms map[string]float64 `json:"platforms"`
}

// SovSummary aggregates the current month's outcomes, overall and per
// platform.
func (r *ReportService) SovSummary(ctx context.Context, tenantID uint, now time.Time) (*SovSummary, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)

	type platformRow struct {
		Platform  string
		Total     int64
		Mentioned int64
	}
	var rows []platformRow
	err := r.db.WithContext(ctx).Model(&models.MeasurementOutcome{}).
		Select("platform, COUNT(*) AS total, COUNT(*) FILTER (WHERE is_mentioned) AS mentioned").
		Where("tenant_id = ? AND measured_at >= ? AND measured_at < ?", tenantID, monthStart, nextMonth).
		Group("platform").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate outcomes: %w", err)
	}

	summary := &SovSummary{
		Period:    util.MonthLabel(now),
		Platforms: make(map[string]float64),
	}
	for _, row := range rows {
		summary.Outcomes += row.Total
		summary.Mentions += row.Mentioned
		summary.Platforms[row.Platform] = sov.SovFromCounts(int(row.Mentioned), int(row.Total))
	}
	summary.SovPct = sov.SovFromCounts(int(summary.Mentions), int(summary.Outcomes))
	return summary, nil
}

func (r *ReportService) reportExists(ctx context.Context, tenantID uint, year, month int, kind models.ReportKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PeriodicReport{}).
		Where("tenant_id = ? AND period_year = ? AND period_month = ? AND kind = ?",
			tenantID, year, month, kind).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing report: %w", err)
	}
	return count > 0, nil
}

func (r *ReportService) writeReport(tenant *models.Tenant, kind models.ReportKind, now time.Time, sovPct float64, prevSov, change *float64, publishedCount int) (string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	// A measured 0% and a missing baseline must render differently, so the
	// template gates on explicit booleans instead of value truthiness.
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, map[string]interface{}{
		"TenantName":     tenant.Name,
		"PeriodLabel":    util.MonthLabel(now),
		"Kind":           string(kind),
		"SovPct":         sovPct,
		"HasPrev":        prevSov != nil,
		"PrevSovPct":     deref(prevSov),
		"HasChange":      change != nil,
		"ChangePct":      deref(change),
		"PublishedCount": publishedCount,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	label := fmt.Sprintf("%s_%s", util.MonthLabel(now), kind)
	path := filepath.Join(r.config.OutputDir, util.ReportFilename(tenant.Slug, label))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func deref(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// isLastDayOfMonth reports whether t falls on its month's final day.
func isLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
