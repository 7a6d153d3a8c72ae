package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
	"github.com/echomed/resonance/pkg/retry"
)

// GeneratedContent is one produced article draft.
type GeneratedContent struct {
	Title           string `json:"title"`
	Body            string `json:"body"`
	MetaDescription string `json:"meta_description"`
}

// ContentGenerator produces an article draft for one slot.
type ContentGenerator interface {
	Generate(ctx context.Context, tenant *models.Tenant, contentType models.ContentType, existingTitles []string) (*GeneratedContent, error)
}

// Expressions banned by medical advertising law. A draft containing any of
// them is discarded and regenerated.
var forbiddenExpressions = []string{
	"1등", "최고", "최우수", "유일", "완치", "100%",
	"성공률", "부작용 없는", "검증된", "가장 잘하는",
	"국내 최초", "세계 최초", "특허", "독보적",
}

const writerSystemPrompt = `당신은 병원 의료 콘텐츠 전문 작가입니다.
아래 병원 정보를 바탕으로 AEO(Answer Engine Optimization) 최적화 콘텐츠를 작성합니다.

작성 규칙:
1. 첫 문단에서 핵심 내용을 완결
2. 환자의 실제 언어로 작성, 의학 용어 최소화
3. 지역명·병원명·원장명을 자연스럽게 포함
4. 분량: 600~900자 (한국어 기준)
5. 마크다운 형식: H2 소제목 2~3개 활용
6. 의료광고법 준수, 아래 표현 절대 사용 금지:
   1등, 최고, 최우수, 유일, 완치, 100%, 성공률, 부작용 없는, 가장 잘하는, 국내 최초

출력 형식 (JSON):
{
  "title": "콘텐츠 제목 (50자 이내)",
  "body": "본문 마크다운",
  "meta_description": "검색 결과·AI 답변용 요약 (150자 이내)"
}`

var typePrompts = map[models.ContentType]string{
	models.ContentFAQ: `[콘텐츠 유형: FAQ]
환자가 AI 검색에 실제로 물어볼 만한 질문 1개를 선정하고 답변을 작성하세요.
진료 키워드: {keywords}`,
	models.ContentDisease: `[콘텐츠 유형: 질환 가이드]
아래 질환 중 하나를 선택하여 원인·증상·진단·치료법을 환자 관점에서 설명하세요.
진료 키워드: {keywords}`,
	models.ContentTreatment: `[콘텐츠 유형: 시술·치료 안내]
아래 시술 중 하나의 과정·회복 기간·주의사항을 안심할 수 있는 톤으로 설명하세요.
진료 키워드: {keywords}`,
	models.ContentColumn: `[콘텐츠 유형: 원장 칼럼]
원장님의 시각에서 환자에게 전하는 의견형 글을 작성하세요.
원장명이 자연스럽게 3회 이상 등장해야 합니다.
진료 키워드: {keywords}`,
	models.ContentHealth: `[콘텐츠 유형: 건강 정보]
계절·생활습관 관련 예방 정보를 친근하게 작성하세요.
진료 키워드: {keywords}`,
	models.ContentLocal: `[콘텐츠 유형: 지역 특화]
로컬 AI 검색에서 직접 노출되도록 지역명을 자연스럽게 반복 포함하세요.
진료 키워드: {keywords}`,
	models.ContentNotice: `[콘텐츠 유형: 병원 공지]
병원의 최근 소식·장비·서비스를 신뢰감 있게 안내하세요.
진료 키워드: {keywords}`,
}

var codeFencePattern = regexp.MustCompile("```(?:json)?\n?")

// GeminiWriter generates article drafts with a Gemini model.
type GeminiWriter struct {
	config *config.GeminiConfig
	client *genai.Client
	policy retry.Policy
	logger *zap.Logger
}

func NewGeminiWriter(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*GeminiWriter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiWriter{
		config: cfg,
		client: client,
		policy: retry.DefaultPolicy(),
		logger: logger,
	}, nil
}

// Generate produces a draft. Malformed JSON and banned-expression violations
// consume the retry budget like transient API errors, since regeneration is
// the only fix for either.
func (w *GeminiWriter) Generate(ctx context.Context, tenant *models.Tenant, contentType models.ContentType, existingTitles []string) (*GeneratedContent, error) {
	prompt := w.buildPrompt(tenant, contentType, existingTitles)

	var content *GeneratedContent
	err := retry.Do(ctx, w.policy, func(ctx context.Context) error {
		result, err := w.client.Models.GenerateContent(ctx,
			w.config.WriteModel,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(writerSystemPrompt, genai.RoleUser),
				MaxOutputTokens:   1500,
			},
		)
		if err != nil {
			return retry.Transient(fmt.Errorf("content generation failed: %w", err))
		}

		parsed, err := parseGeneratedContent(result.Text())
		if err != nil {
			w.logger.Warn("Draft rejected, regenerating", zap.Error(err))
			return retry.Transient(err)
		}
		content = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (w *GeminiWriter) buildPrompt(tenant *models.Tenant, contentType models.ContentType, existingTitles []string) string {
	keywords := strings.Join(tenant.Keywords, ", ")
	tmpl, ok := typePrompts[contentType]
	if !ok {
		tmpl = typePrompts[models.ContentFAQ]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `[병원 프로파일]
병원명: %s
지역: %s
진료과목: %s
핵심 키워드: %s
원장명: %s
진료 철학: %s

`,
		tenant.Name,
		strings.Join(tenant.Regions, ", "),
		strings.Join(tenant.Specialties, ", "),
		keywords,
		tenant.DirectorName,
		tenant.DirectorPhilosophy)
	b.WriteString(strings.ReplaceAll(tmpl, "{keywords}", keywords))

	if len(existingTitles) > 0 {
		b.WriteString("\n\n이미 작성된 제목 (중복 금지):\n")
		for _, t := range existingTitles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	return b.String()
}

func parseGeneratedContent(raw string) (*GeneratedContent, error) {
	clean := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var content GeneratedContent
	if err := json.Unmarshal([]byte(clean), &content); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	if content.Title == "" || content.Body == "" {
		return nil, fmt.Errorf("model returned an incomplete draft")
	}

	if violations := checkForbidden(content.Title + content.Body); len(violations) > 0 {
		return nil, fmt.Errorf("forbidden medical expressions: %s", strings.Join(violations, ", "))
	}
	return &content, nil
}

func checkForbidden(text string) []string {
	var found []string
	for _, expr := range forbiddenExpressions {
		if strings.Contains(text, expr) {
			found = append(found, expr)
		}
	}
	return found
}
