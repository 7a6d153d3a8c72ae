package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
)

var contentTypeLabels = map[models.ContentType]string{
	models.ContentFAQ:       "FAQ",
	models.ContentDisease:   "질환 가이드",
	models.ContentTreatment: "시술·치료 안내",
	models.ContentColumn:    "원장 칼럼",
	models.ContentHealth:    "건강 정보",
	models.ContentLocal:     "지역 특화",
	models.ContentNotice:    "병원 공지",
}

// Notifier pushes operator events to a Slack webhook. Notifications are
// best effort: callers log failures and carry on.
type Notifier struct {
	config *config.SlackConfig
	logger *zap.Logger
	client *http.Client
}

func NewNotifier(cfg *config.SlackConfig, logger *zap.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if n.config.WebhookURL == "" {
		n.logger.Warn("Slack webhook not configured, dropping notification")
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.config.WebhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (n *Notifier) notify(ctx context.Context, text string) {
	if err := n.send(ctx, text); err != nil {
		n.logger.Error("Slack notification failed", zap.Error(err))
	}
}

func (n *Notifier) InitialReportReady(ctx context.Context, tenantName string, sovPct float64, reportPath string) {
	n.notify(ctx, fmt.Sprintf(
		"🔍 [진단 리포트] *%s* AI 검색 진단 완료\n현재 통합 SoV: *%.1f%%*\n파일: `%s`\n원장 보고 전 내용 확인 후 전달해 주세요.",
		tenantName, sovPct, reportPath))
}

func (n *Notifier) SiteBuilt(ctx context.Context, tenantName, previewURL string) {
	n.notify(ctx, fmt.Sprintf(
		"🏗️ [사이트 빌드] *%s* 홈페이지 빌드 완료\n미리보기: %s\nAdmin에서 도메인을 연결해 주세요.",
		tenantName, previewURL))
}

func (n *Notifier) ContentDraftReady(ctx context.Context, tenantName string, slot *models.ContentSlot, adminURL string) {
	label, ok := contentTypeLabels[slot.ContentType]
	if !ok {
		label = string(slot.ContentType)
	}
	n.notify(ctx, fmt.Sprintf(
		"📝 [콘텐츠] *%s* %d편 중 %d번째 초안 저장 완료\n유형: %s | 발행 예정일: %s\n<%s|Admin에서 검토 후 발행해 주세요.>",
		tenantName, slot.TotalCount, slot.SequenceNo, label,
		slot.ScheduledDate.Format("2006-01-02"), adminURL))
}

func (n *Notifier) ContentPublished(ctx context.Context, tenantName, title string) {
	n.notify(ctx, fmt.Sprintf("✅ [%s] 발행 완료: %s", tenantName, title))
}

func (n *Notifier) MonthlyReportReady(ctx context.Context, tenantName string, year, month int, sovPct float64, changePct *float64, reportPath string) {
	changeText := ""
	if changePct != nil {
		changeText = fmt.Sprintf(" | 전월 대비: *%+.1f%%p*", *changePct)
	}
	n.notify(ctx, fmt.Sprintf(
		"📊 [월간 리포트] *%s* %d년 %d월 SoV 리포트 생성 완료\n통합 SoV: *%.1f%%*%s\n파일: `%s`",
		tenantName, year, month, sovPct, changeText, reportPath))
}

func (n *Notifier) MonitoringDone(ctx context.Context, total, queued int) {
	n.notify(ctx, fmt.Sprintf("📊 주간 SoV 모니터링 큐잉 완료 (%d/%d개 병원)", queued, total))
}
