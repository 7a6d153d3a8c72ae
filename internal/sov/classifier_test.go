package sov

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
	// last prompt seen, for truncation assertions
	prompt string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestClassifyBlankResponseIsNegative(t *testing.T) {
	fc := &fakeCompleter{}
	c := NewClassifier(fc, zap.NewNop())

	got := c.Classify(context.Background(), "연세바른병원", "")
	if diff := cmp.Diff(Verdict{}, got); diff != "" {
		t.Errorf("verdict mismatch (-want +got):\n%s", diff)
	}
	if fc.calls != 0 {
		t.Errorf("model called %d times for blank response, want 0", fc.calls)
	}
}

func TestClassifyPrefilterSkipsModel(t *testing.T) {
	fc := &fakeCompleter{}
	c := NewClassifier(fc, zap.NewNop())

	// Response never contains the first two characters of the tenant name.
	got := c.Classify(context.Background(), "연세바른병원", "강남에는 좋은 병원이 많습니다.")
	if diff := cmp.Diff(Verdict{}, got); diff != "" {
		t.Errorf("verdict mismatch (-want +got):\n%s", diff)
	}
	if fc.calls != 0 {
		t.Errorf("model called %d times despite prefilter miss, want 0", fc.calls)
	}
}

func TestClassifyPositiveVerdict(t *testing.T) {
	fc := &fakeCompleter{
		reply: `{"is_mentioned": true, "mention_rank": 2, "sentiment": "positive", "mention_context": "연세바른병원을 추천합니다"}`,
	}
	c := NewClassifier(fc, zap.NewNop())

	got := c.Classify(context.Background(), "연세바른병원", "강남에서는 연세바른병원을 추천합니다.")
	want := Verdict{
		IsMentioned:    true,
		MentionRank:    intPtr(2),
		Sentiment:      strPtr("positive"),
		MentionContext: strPtr("연세바른병원을 추천합니다"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("verdict mismatch (-want +got):\n%s", diff)
	}
	if fc.calls != 1 {
		t.Errorf("model called %d times, want 1", fc.calls)
	}
}

func TestClassifyMalformedJSONDegradesToNegative(t *testing.T) {
	fc := &fakeCompleter{reply: "not json at all"}
	c := NewClassifier(fc, zap.NewNop())

	got := c.Classify(context.Background(), "연세바른병원", "연세바른병원이 유명합니다.")
	if diff := cmp.Diff(Verdict{}, got); diff != "" {
		t.Errorf("verdict mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyModelErrorDegradesToNegative(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("rate limited")}
	c := NewClassifier(fc, zap.NewNop())

	got := c.Classify(context.Background(), "연세바른병원", "연세바른병원이 유명합니다.")
	if diff := cmp.Diff(Verdict{}, got); diff != "" {
		t.Errorf("verdict mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyTruncatesLongResponses(t *testing.T) {
	fc := &fakeCompleter{reply: `{"is_mentioned": false}`}
	c := NewClassifier(fc, zap.NewNop())

	long := "연세" + strings.Repeat("가", 5000)
	c.Classify(context.Background(), "연세바른병원", long)

	if fc.calls != 1 {
		t.Fatalf("model called %d times, want 1", fc.calls)
	}
	if got := len([]rune(fc.prompt)); got > classifyResponseLimit+len([]rune(parsePromptFormat))+20 {
		t.Errorf("prompt length %d runes suggests the response was not truncated", got)
	}
}
