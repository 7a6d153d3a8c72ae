// Package sov implements share-of-voice measurement: query matrix generation,
// probe orchestration, mention classification and aggregation.
package sov

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// queryTemplates are the probe phrasings a prospective patient would type.
// Placeholders: {region}, {sub_region}, {keyword}, {specialty}.
var queryTemplates = []string{
	"{region} {keyword} 잘 보는 병원 추천해줘",
	"{region} {specialty} 어디가 좋아",
	"{sub_region} {keyword} 잘하는 곳",
	"{region} {specialty} 전문의 추천",
	"{keyword} 수술 {region} 어느 병원이 좋아?",
	"{region} {keyword} 치료 잘하는 병원",
	"{keyword} 증상 {region}에서 치료 잘하는 곳",
	"{region} {specialty} 병원 어디가 좋은지 비교해줘",
	"{keyword} 치료 비용이 얼마나 드는지 알려줘",
}

// GenerateQueryMatrix expands the template list against every
// keyword x specialty pair and deduplicates the result. Templates that ignore
// one axis produce duplicates across that axis, so the output is smaller than
// the raw product. The returned order is sorted for determinism.
//
// Empty keywords or specialties would silently yield zero queries and a
// meaningless 0% measurement downstream, so that case is rejected early with
// a warning and an empty matrix.
func GenerateQueryMatrix(logger *zap.Logger, regions, specialties, keywords []string) []string {
	if len(keywords) == 0 || len(specialties) == 0 {
		logger.Warn("Query matrix requested with empty inputs, returning no queries",
			zap.Strings("regions", regions),
			zap.Strings("specialties", specialties),
			zap.Strings("keywords", keywords))
		return []string{}
	}

	mainRegion := ""
	if len(regions) > 0 {
		mainRegion = regions[0]
	}
	subRegion := mainRegion
	if len(regions) > 1 {
		subRegion = regions[1]
	}

	seen := make(map[string]bool)
	for _, tmpl := range queryTemplates {
		for _, keyword := range keywords {
			for _, specialty := range specialties {
				q := renderTemplate(tmpl, mainRegion, subRegion, keyword, specialty)
				seen[q] = true
			}
		}
	}

	queries := make([]string, 0, len(seen))
	for q := range seen {
		queries = append(queries, q)
	}
	sort.Strings(queries)
	return queries
}

func renderTemplate(tmpl, region, subRegion, keyword, specialty string) string {
	r := strings.NewReplacer(
		"{region}", region,
		"{sub_region}", subRegion,
		"{keyword}", keyword,
		"{specialty}", specialty,
	)
	return r.Replace(tmpl)
}
