package sov

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/echomed/resonance/internal/platform"
	"github.com/echomed/resonance/pkg/util"
)

// Classifier responses beyond this length add cost without adding signal.
const classifyResponseLimit = 3000

const parsePromptFormat = `다음 AI 답변에서 "%s"이 언급되었는지 분석하라.
병원명 축약형·변형도 언급으로 인정한다.

[답변]
%s

반드시 아래 JSON만 출력:
{"is_mentioned": true/false, "mention_rank": null 또는 정수, "sentiment": "positive"/"neutral"/"negative"/null, "mention_context": "언급 문장 또는 null"}`

// Verdict is the classifier's judgement of one platform response.
// The zero value is the negative verdict.
type Verdict struct {
	IsMentioned    bool    `json:"is_mentioned"`
	MentionRank    *int    `json:"mention_rank"`
	Sentiment      *string `json:"sentiment"`
	MentionContext *string `json:"mention_context"`
}

// Classifier decides whether a tenant is mentioned in a platform response.
// A cheap substring prefilter skips the model call for responses that cannot
// possibly mention the tenant.
type Classifier struct {
	client platform.JSONCompleter
	logger *zap.Logger
}

func NewClassifier(client platform.JSONCompleter, logger *zap.Logger) *Classifier {
	return &Classifier{
		client: client,
		logger: logger,
	}
}

// Classify judges the response text. Classification never fails the probe:
// a broken model reply degrades to the negative verdict.
func (c *Classifier) Classify(ctx context.Context, tenantName, response string) Verdict {
	if response == "" {
		return Verdict{}
	}
	if !prefilterHit(tenantName, response) {
		return Verdict{}
	}

	prompt := fmt.Sprintf(parsePromptFormat, tenantName, util.TruncateRunes(response, classifyResponseLimit))
	raw, err := c.client.CompleteJSON(ctx, prompt)
	if err != nil {
		c.logger.Error("Mention classification call failed",
			zap.String("tenant", tenantName), zap.Error(err))
		return Verdict{}
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		c.logger.Warn("Mention classification returned malformed JSON",
			zap.String("tenant", tenantName), zap.Error(err))
		return Verdict{}
	}
	return verdict
}

// prefilterHit reports whether the first two runes of the tenant name appear
// in the response. Abbreviations and inflections keep the leading characters,
// so a miss here rules the mention out.
func prefilterHit(tenantName, response string) bool {
	prefix := util.TruncateRunes(tenantName, 2)
	if prefix == "" {
		return false
	}
	return strings.Contains(response, prefix)
}
