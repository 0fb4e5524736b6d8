package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// llmAnalysis is the structured result requested from the generative model.
// All fields are untrusted until validatePayload has passed.
type llmAnalysis struct {
	Scenes            []llmScene   `json:"scenes"`
	OverallFeedback   string       `json:"overall_feedback"`
	NarrativeArc      string       `json:"narrative_arc"`
	SuggestedRewrites []llmRewrite `json:"suggested_rewrites"`
}

type llmScene struct {
	Label           string  `json:"label"`
	Excerpt         string  `json:"excerpt"`
	DurationSec     float64 `json:"duration_sec"`
	Provider        string  `json:"recommended_provider"`
	VisualDirection string  `json:"visual_direction"`
	Feedback        string  `json:"feedback"`
	Rating          string  `json:"rating"`
	HasDialogue     bool    `json:"has_dialogue"`
	HasBroll        bool    `json:"has_broll"`
}

type llmRewrite struct {
	Position   int    `json:"position"`
	Suggestion string `json:"suggestion"`
}

// errNoParse marks raw output none of the extraction strategies could read.
var errNoParse = errors.New("no parse strategy succeeded")

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// parseStrategy extracts a JSON candidate from raw model output. ok=false
// means the strategy does not apply; the candidate may still fail to decode.
type parseStrategy struct {
	name    string
	extract func(raw string) (string, bool)
}

// Strategies are tried in strict order: direct parse, substring between the
// outermost braces, fenced code block. The repair round-trip in generative.go
// is one more explicit strategy layered on top, not an ad hoc retry.
var parseStrategies = []parseStrategy{
	{name: "direct", extract: func(raw string) (string, bool) {
		return strings.TrimSpace(raw), true
	}},
	{name: "braces", extract: func(raw string) (string, bool) {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return "", false
		}
		return raw[start : end+1], true
	}},
	{name: "fenced", extract: func(raw string) (string, bool) {
		m := fenceRe.FindStringSubmatch(raw)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	}},
}

// parsePayload decodes untrusted model output into llmAnalysis, trying each
// extraction strategy in order.
func parsePayload(raw string) (*llmAnalysis, error) {
	var lastErr error
	for _, s := range parseStrategies {
		candidate, ok := s.extract(raw)
		if !ok || candidate == "" {
			continue
		}
		var payload llmAnalysis
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			lastErr = fmt.Errorf("%s: %w", s.name, err)
			continue
		}
		return &payload, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", errNoParse, lastErr)
	}
	return nil, errNoParse
}
