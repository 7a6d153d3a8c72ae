package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Tenant{},
		&models.PublishSchedule{},
		&models.ContentSlot{},
		&models.Query{},
		&models.MeasurementOutcome{},
		&models.PeriodicReport{},
		&models.ErrorLog{},
		&models.PipelineStats{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestReportService(t *testing.T, db *gorm.DB) *ReportService {
	t.Helper()
	notifier := NewNotifier(&config.SlackConfig{}, zap.NewNop())
	monitoring := NewMonitoringService(db, time.UTC, zap.NewNop())
	cfg := &config.ReportConfig{OutputDir: t.TempDir()}
	return NewReportService(db, nil, nil, notifier, monitoring, cfg, zap.NewNop())
}

func TestWriteReportKeepsZeroDelta(t *testing.T) {
	r := newTestReportService(t, nil)
	tenant := &models.Tenant{Name: "연세바른병원", Slug: "yonsei"}
	now := time.Date(2027, 2, 28, 23, 0, 0, 0, time.UTC)

	prev := 30.0
	flat := 0.0
	path, err := r.writeReport(tenant, models.ReportMonthly, now, 30.0, &prev, &flat, 4)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	html := string(data)

	if !strings.Contains(html, "전월 SoV") {
		t.Error("previous SoV row missing despite measured baseline")
	}
	if !strings.Contains(html, "+0.0%p") {
		t.Errorf("flat month must render as +0.0%%p, not disappear")
	}
}

func TestWriteReportOmitsMissingBaseline(t *testing.T) {
	r := newTestReportService(t, nil)
	tenant := &models.Tenant{Name: "연세바른병원", Slug: "yonsei"}
	now := time.Date(2027, 2, 28, 23, 0, 0, 0, time.UTC)

	path, err := r.writeReport(tenant, models.ReportInitial, now, 12.5, nil, nil, 0)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	html := string(data)

	if strings.Contains(html, "전월 SoV") {
		t.Error("previous SoV row rendered without a baseline")
	}
	if strings.Contains(html, "전월 대비") {
		t.Error("delta row rendered without a baseline")
	}
}

func TestMonthlyReportForIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	tenant := models.Tenant{Name: "연세바른병원", Slug: "yonsei", Status: models.TenantActive}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	r := newTestReportService(t, db)

	ctx := context.Background()
	now := time.Date(2027, 2, 28, 23, 0, 0, 0, time.UTC)

	if err := r.monthlyReportFor(ctx, &tenant, now); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := r.monthlyReportFor(ctx, &tenant, now); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var count int64
	if err := db.Model(&models.PeriodicReport{}).Count(&count).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d reports for one period, want 1", count)
	}
}

func TestRunInitialReportSkipsExistingReport(t *testing.T) {
	db := newTestDB(t)
	tenant := models.Tenant{Name: "연세바른병원", Slug: "yonsei"}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	now := time.Now()
	seed := models.PeriodicReport{
		TenantID:    tenant.ID,
		PeriodYear:  now.Year(),
		PeriodMonth: int(now.Month()),
		Kind:        models.ReportInitial,
		SovPct:      20.0,
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed report: %v", err)
	}
	r := newTestReportService(t, db)

	if err := r.RunInitialReport(context.Background(), tenant.ID); err != nil {
		t.Fatalf("rerun: %v", err)
	}

	var count int64
	if err := db.Model(&models.PeriodicReport{}).Count(&count).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d reports after rerun, want 1", count)
	}

	var reloaded models.Tenant
	if err := db.First(&reloaded, tenant.ID).Error; err != nil {
		t.Fatalf("reload tenant: %v", err)
	}
	if reloaded.Status == models.TenantAnalyzing {
		t.Error("skipped rerun must not restart the analysis lifecycle")
	}
}

func TestIsLastDayOfMonth(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"february non-leap", time.Date(2027, 2, 28, 23, 0, 0, 0, seoul), true},
		{"february leap year 28th", time.Date(2028, 2, 28, 23, 0, 0, 0, seoul), false},
		{"february leap year 29th", time.Date(2028, 2, 29, 23, 0, 0, 0, seoul), true},
		{"december 31st", time.Date(2027, 12, 31, 23, 0, 0, 0, seoul), true},
		{"thirty-day month", time.Date(2027, 4, 30, 23, 0, 0, 0, seoul), true},
		{"mid-window day of a long month", time.Date(2027, 1, 29, 23, 0, 0, 0, seoul), false},
		{"first of month", time.Date(2027, 3, 1, 23, 0, 0, 0, seoul), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLastDayOfMonth(tt.date); got != tt.want {
				t.Errorf("isLastDayOfMonth(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}
