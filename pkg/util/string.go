package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// GenerateSlug creates a URL-friendly slug from a display name
func GenerateSlug(name string) string {
	// Convert to lowercase
	slug := strings.ToLower(name)

	// Replace spaces and special characters with hyphens
	reg := regexp.MustCompile(`[^a-z0-9\p{Hangul}]+`) // Allow Korean characters
	slug = reg.ReplaceAllString(slug, "-")

	// Remove leading/trailing hyphens
	slug = strings.Trim(slug, "-")

	// Limit length
	if len(slug) > 50 {
		slug = slug[:50]
		slug = strings.Trim(slug, "-")
	}

	return slug
}

// ReportFilename builds the stored filename for a generated report
func ReportFilename(slug, label string) string {
	return fmt.Sprintf("%s_%s.html", slug, label)
}

// MonthLabel formats a period start as the report label (e.g. "2026-08")
func MonthLabel(t time.Time) string {
	return t.Format("2006-01")
}

// TruncateRunes shortens s to at most n runes, leaving multi-byte text intact
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
