package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
)

func testTenant() *models.Tenant {
	return &models.Tenant{
		ID:                 1,
		Name:               "연세바른병원",
		Slug:               "연세바른병원",
		Regions:            models.StringArray{"서울", "강남구"},
		Specialties:        models.StringArray{"외과"},
		Keywords:           models.StringArray{"치질"},
		DirectorName:       "김원장",
		DirectorPhilosophy: "환자 중심 진료",
	}
}

func TestBuildSiteWritesIndexWithSchema(t *testing.T) {
	cfg := &config.SiteConfig{OutputDir: t.TempDir()}
	b := NewStaticSiteBuilder(cfg, zap.NewNop())
	tenant := testTenant()

	path, err := b.BuildSite(tenant, "yonsei.echomed.io")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(path, "index.html"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	html := string(data)

	for _, want := range []string{
		"연세바른병원",
		"MedicalClinic",
		"https://yonsei.echomed.io",
		"김원장",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestBuildContentPageWritesArticle(t *testing.T) {
	cfg := &config.SiteConfig{OutputDir: t.TempDir()}
	b := NewStaticSiteBuilder(cfg, zap.NewNop())
	tenant := testTenant()

	slot := &models.ContentSlot{
		ID:              7,
		TenantID:        tenant.ID,
		ContentType:     models.ContentFAQ,
		Title:           "치질 수술 후 회복 기간",
		Body:            "## 회복 기간\n\n보통 2주가 걸립니다.",
		MetaDescription: "회복 안내",
	}
	if err := b.BuildContentPage(tenant, slot); err != nil {
		t.Fatalf("build page: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, tenant.Slug, "content", "7.html"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	html := string(data)

	if !strings.Contains(html, "<h2>회복 기간</h2>") {
		t.Error("heading not rendered")
	}
	if !strings.Contains(html, "<p>보통 2주가 걸립니다.</p>") {
		t.Error("paragraph not rendered")
	}
}

func TestRenderMarkdownishEscapesHTML(t *testing.T) {
	out := string(renderMarkdownish("<script>alert(1)</script>"))
	if strings.Contains(out, "<script>") {
		t.Error("raw HTML must be escaped")
	}
}
