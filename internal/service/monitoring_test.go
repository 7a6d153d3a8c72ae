package service

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/models"
)

func TestUpdatePipelineStatsUsesOperationalDayBoundary(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	db := newTestDB(t)
	m := NewMonitoringService(db, seoul, zap.NewNop())

	// Early-morning KST outcomes fall on the previous UTC day; they must still
	// count as today.
	measuredAt := dateOnly(time.Now().In(seoul)).Add(30 * time.Minute)
	outcome := models.MeasurementOutcome{
		TenantID:    1,
		QueryID:     1,
		Platform:    "chatgpt",
		IsMentioned: true,
		MeasuredAt:  measuredAt,
		RawResponse: "강남 연세바른병원을 추천합니다.",
	}
	if err := db.Create(&outcome).Error; err != nil {
		t.Fatalf("create outcome: %v", err)
	}

	if err := m.UpdatePipelineStats(); err != nil {
		t.Fatalf("update stats: %v", err)
	}

	var stats models.PipelineStats
	if err := db.First(&stats).Error; err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if stats.OutcomesToday != 1 {
		t.Errorf("outcomes today = %d, want 1", stats.OutcomesToday)
	}
	if stats.MentionsToday != 1 {
		t.Errorf("mentions today = %d, want 1", stats.MentionsToday)
	}
}
