package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
)

// SiteBuilder renders a tenant's static site.
type SiteBuilder interface {
	BuildSite(tenant *models.Tenant, domain string) (string, error)
	BuildContentPage(tenant *models.Tenant, slot *models.ContentSlot) error
}

const indexTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Tenant.Name}}</title>
<meta name="description" content="{{.Description}}">
<script type="application/ld+json">{{.SchemaJSON}}</script>
</head>
<body>
<header><h1>{{.Tenant.Name}}</h1></header>
<main>
<section>
<h2>진료 안내</h2>
<p>{{.Description}}</p>
</section>
{{if .Tenant.DirectorName}}<section>
<h2>원장 소개</h2>
<p>{{.Tenant.DirectorName}} 원장</p>
<p>{{.Tenant.DirectorPhilosophy}}</p>
</section>{{end}}
</main>
</body>
</html>
`

const contentTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Slot.Title}} | {{.Tenant.Name}}</title>
<meta name="description" content="{{.Slot.MetaDescription}}">
</head>
<body>
<article>
<h1>{{.Slot.Title}}</h1>
{{if .Slot.ImageURL}}<img src="{{.Slot.ImageURL}}" alt="{{.Slot.Title}}">{{end}}
<div>{{.Body}}</div>
</article>
</body>
</html>
`

// StaticSiteBuilder writes tenant sites as plain HTML files under the
// configured output directory, one directory per tenant slug.
type StaticSiteBuilder struct {
	config *config.SiteConfig
	logger *zap.Logger
	index  *template.Template
	page   *template.Template
}

func NewStaticSiteBuilder(cfg *config.SiteConfig, logger *zap.Logger) *StaticSiteBuilder {
	return &StaticSiteBuilder{
		config: cfg,
		logger: logger,
		index:  template.Must(template.New("index").Parse(indexTemplate)),
		page:   template.Must(template.New("content").Parse(contentTemplate)),
	}
}

// BuildSite renders the tenant's landing page and returns the build path.
func (b *StaticSiteBuilder) BuildSite(tenant *models.Tenant, domain string) (string, error) {
	dir := filepath.Join(b.config.OutputDir, tenant.Slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create site dir: %w", err)
	}

	schema, err := buildSchemaJSON(tenant, domain)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = b.index.Execute(&buf, map[string]interface{}{
		"Tenant":      tenant,
		"Description": siteDescription(tenant),
		"SchemaJSON":  template.JS(schema),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render index: %w", err)
	}

	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write index: %w", err)
	}

	b.logger.Info("Site built",
		zap.String("tenant", tenant.Slug),
		zap.String("path", dir))
	return dir, nil
}

// BuildContentPage renders one published article under the tenant's site.
func (b *StaticSiteBuilder) BuildContentPage(tenant *models.Tenant, slot *models.ContentSlot) error {
	dir := filepath.Join(b.config.OutputDir, tenant.Slug, "content")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create content dir: %w", err)
	}

	var buf bytes.Buffer
	err := b.page.Execute(&buf, map[string]interface{}{
		"Tenant": tenant,
		"Slot":   slot,
		"Body":   renderMarkdownish(slot.Body),
	})
	if err != nil {
		return fmt.Errorf("failed to render content page: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.html", slot.ID))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write content page: %w", err)
	}
	return nil
}

// buildSchemaJSON emits the schema.org MedicalClinic description AI crawlers
// read.
func buildSchemaJSON(tenant *models.Tenant, domain string) (string, error) {
	schema := map[string]interface{}{
		"@context":         "https://schema.org",
		"@type":            "MedicalClinic",
		"name":             tenant.Name,
		"url":              "https://" + domain,
		"medicalSpecialty": []string(tenant.Specialties),
	}
	if len(tenant.Regions) > 0 {
		schema["areaServed"] = []string(tenant.Regions)
	}
	out, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(out), nil
}

func siteDescription(tenant *models.Tenant) string {
	parts := []string{tenant.Name}
	if len(tenant.Regions) > 0 {
		parts = append([]string{strings.Join(tenant.Regions, " ")}, parts...)
	}
	if len(tenant.Specialties) > 0 {
		parts = append(parts, strings.Join(tenant.Specialties, ", "))
	}
	return strings.Join(parts, " | ")
}

// renderMarkdownish converts the draft's light markdown (H2 headings and
// paragraphs) to HTML. Full markdown rendering is the admin frontend's job;
// the static page only needs readable structure.
func renderMarkdownish(body string) template.HTML {
	var b strings.Builder
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, "## ") {
			fmt.Fprintf(&b, "<h2>%s</h2>\n", template.HTMLEscapeString(strings.TrimPrefix(block, "## ")))
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>\n", template.HTMLEscapeString(block))
	}
	return template.HTML(b.String())
}
