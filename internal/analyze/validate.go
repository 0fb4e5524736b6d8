package analyze

import (
	"fmt"

	"reelforge/internal/types"
)

// Validation bounds for untrusted model output. Failing any of these is
// terminal for the enrichment call — no partial recovery.
const (
	maxLabelChars           = 120
	maxExcerptChars         = 400
	maxVisualDirectionChars = 600
	maxFeedbackChars        = 600
	maxOverallChars         = 2000
	maxArcChars             = 1200
	maxSuggestionChars      = 800
	minSceneDurationSec     = 1
	maxSceneDurationSec     = 60
)

// validatePayload checks the parsed model output against the schema bounds.
func validatePayload(p *llmAnalysis, minScenes, maxScenes int) error {
	if n := len(p.Scenes); n < minScenes || n > maxScenes {
		return fmt.Errorf("scene count %d outside [%d, %d]", n, minScenes, maxScenes)
	}
	if len(p.OverallFeedback) > maxOverallChars {
		return fmt.Errorf("overall feedback exceeds %d chars", maxOverallChars)
	}
	if len(p.NarrativeArc) > maxArcChars {
		return fmt.Errorf("narrative arc exceeds %d chars", maxArcChars)
	}
	for i, s := range p.Scenes {
		if len(s.Label) > maxLabelChars {
			return fmt.Errorf("scene %d: label exceeds %d chars", i+1, maxLabelChars)
		}
		if len(s.Excerpt) > maxExcerptChars {
			return fmt.Errorf("scene %d: excerpt exceeds %d chars", i+1, maxExcerptChars)
		}
		if len(s.VisualDirection) > maxVisualDirectionChars {
			return fmt.Errorf("scene %d: visual direction exceeds %d chars", i+1, maxVisualDirectionChars)
		}
		if len(s.Feedback) > maxFeedbackChars {
			return fmt.Errorf("scene %d: feedback exceeds %d chars", i+1, maxFeedbackChars)
		}
		if s.DurationSec < minSceneDurationSec || s.DurationSec > maxSceneDurationSec {
			return fmt.Errorf("scene %d: duration %.1f outside [%d, %d]", i+1, s.DurationSec, minSceneDurationSec, maxSceneDurationSec)
		}
		if s.Rating != "" && !types.Rating(s.Rating).Valid() {
			return fmt.Errorf("scene %d: unknown rating %q", i+1, s.Rating)
		}
	}
	if len(p.SuggestedRewrites) > maxScenes {
		return fmt.Errorf("too many suggested rewrites (%d)", len(p.SuggestedRewrites))
	}
	for i, r := range p.SuggestedRewrites {
		if r.Position < 1 {
			return fmt.Errorf("rewrite %d: position %d is not 1-based", i+1, r.Position)
		}
		if len(r.Suggestion) > maxSuggestionChars {
			return fmt.Errorf("rewrite %d: suggestion exceeds %d chars", i+1, maxSuggestionChars)
		}
	}
	return nil
}
