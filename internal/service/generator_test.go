package service

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/models"
)

func TestParseGeneratedContent(t *testing.T) {
	raw := `{"title": "강남에서 치질 치료받기", "body": "## 개요\n본문입니다.", "meta_description": "요약"}`

	got, err := parseGeneratedContent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := &GeneratedContent{
		Title:           "강남에서 치질 치료받기",
		Body:            "## 개요\n본문입니다.",
		MetaDescription: "요약",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGeneratedContentStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"title\": \"제목\", \"body\": \"본문\"}\n```"

	got, err := parseGeneratedContent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Title != "제목" || got.Body != "본문" {
		t.Errorf("unexpected content: %+v", got)
	}
}

func TestParseGeneratedContentRejectsForbiddenExpressions(t *testing.T) {
	raw := `{"title": "지역 1등 병원", "body": "완치를 보장합니다."}`

	_, err := parseGeneratedContent(raw)
	if err == nil {
		t.Fatal("expected forbidden-expression error")
	}
	if !strings.Contains(err.Error(), "1등") {
		t.Errorf("error should name the violation, got: %v", err)
	}
}

func TestParseGeneratedContentRejectsInvalidJSON(t *testing.T) {
	if _, err := parseGeneratedContent("그냥 텍스트 답변입니다."); err == nil {
		t.Error("expected error for non-JSON reply")
	}
}

func TestParseGeneratedContentRejectsIncompleteDraft(t *testing.T) {
	if _, err := parseGeneratedContent(`{"title": "제목만 있음"}`); err == nil {
		t.Error("expected error for draft without a body")
	}
}

func TestBuildPromptFillsProfileAndKeywords(t *testing.T) {
	w := &GeminiWriter{logger: zap.NewNop()}
	tenant := testTenant()

	prompt := w.buildPrompt(tenant, models.ContentColumn, []string{"치질 수술 후 회복 기간"})

	for _, want := range []string{
		"연세바른병원",
		"김원장",
		"진료 키워드: 치질",
		"원장 칼럼",
		"- 치질 수술 후 회복 기간",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "{keywords}") {
		t.Error("keyword placeholder left unexpanded")
	}
}

func TestBuildPromptFallsBackToFAQ(t *testing.T) {
	w := &GeminiWriter{logger: zap.NewNop()}

	prompt := w.buildPrompt(testTenant(), models.ContentType("UNKNOWN"), nil)
	if !strings.Contains(prompt, "콘텐츠 유형: FAQ") {
		t.Error("unknown content type must fall back to the FAQ prompt")
	}
}

func TestCheckForbidden(t *testing.T) {
	got := checkForbidden("국내 최초로 부작용 없는 치료를 제공합니다")
	want := []string{"부작용 없는", "국내 최초"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}

	if got := checkForbidden("편안한 진료를 약속드립니다"); got != nil {
		t.Errorf("clean text flagged: %v", got)
	}
}
