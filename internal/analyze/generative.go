package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"reelforge/internal/config"
	"reelforge/internal/pricing"
	"reelforge/internal/score"
	"reelforge/internal/segment"
	"reelforge/internal/types"
)

const enrichSystemPrompt = `You are a senior video producer reviewing a marketing script that will be rendered scene by scene by AI video backends.

Respond with ONLY valid JSON — no preamble, no markdown, no explanation. The JSON object must have:
- "scenes": array, one entry per scene, each with:
  - "label": short scene title
  - "excerpt": the scene's opening words (under 200 characters)
  - "duration_sec": recommended duration in seconds (number)
  - "recommended_provider": one of the provider names listed in the request
  - "visual_direction": concrete guidance for what should be on screen
  - "feedback": one or two sentences on the scene's writing
  - "rating": one of "strong" | "adequate" | "needs-work"
  - "has_dialogue": true if the scene speaks to the viewer or quotes speech
  - "has_broll": true if the scene calls for footage rather than a presenter
- "overall_feedback": a short paragraph on the whole script
- "narrative_arc": one sentence naming the script's arc
- "suggested_rewrites": optional array of {"position": N, "suggestion": "..."} for weak scenes

Split the script where the subject or visual changes. Keep the scene count close to the natural structure of the text.`

const repairSystemPrompt = `The following text was supposed to be a single valid JSON object but is malformed. Return the same content as valid JSON. Output ONLY the corrected JSON, nothing else.`

// Enricher is the optional generative pass over a script. A nil client makes
// every call degrade to the deterministic baseline (Enrich returns nil).
type Enricher struct {
	cfg    config.AnalyzeConfig
	client AIClient
	cache  *Cache
	det    *Analyzer
	scorer *score.Scorer
}

// NewEnricher wires the generative pass. cache must be non-nil; client may be
// nil when no credential is configured.
func NewEnricher(cfg config.AnalyzeConfig, client AIClient, cache *Cache, det *Analyzer) *Enricher {
	return &Enricher{
		cfg:    cfg,
		client: client,
		cache:  cache,
		det:    det,
		scorer: score.New(score.DefaultWeights()),
	}
}

// Enrich runs the full generative pipeline and returns nil on any failure:
// no credential, call error, or output that cannot be made to validate.
// Callers must always hold a deterministic baseline to fall back to.
func (e *Enricher) Enrich(ctx context.Context, script string, platform types.Platform, connected []string, budget float64) *types.ScriptAnalysis {
	if e.client == nil {
		return nil
	}

	key := Key(script, platform, connected)
	if cached, ok := e.cache.Get(key); ok {
		log.Debug().Str("key", key[:12]).Msg("enrichment cache hit")
		return cached
	}

	userPrompt, truncated := e.buildPrompt(script, platform, connected)
	raw, _, err := e.client.GenerateText(ctx, enrichSystemPrompt, userPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("enrichment unavailable: model call failed")
		return nil
	}

	payload, err := parsePayload(raw)
	if err != nil {
		payload, err = e.repair(ctx, raw)
		if err != nil {
			log.Warn().Err(err).Msg("enrichment unavailable: output unparseable after repair")
			return nil
		}
	}

	if err := validatePayload(payload, 1, e.det.SegmentOptions().MaxFragments); err != nil {
		log.Warn().Err(err).Msg("enrichment unavailable: validation failed")
		return nil
	}

	analysis := e.assemble(script, platform, connected, budget, payload)
	if truncated {
		analysis.Warnings = append(analysis.Warnings, "script was truncated before the generative pass")
	}
	e.cache.Put(key, analysis)
	return analysis
}

// buildPrompt assembles the bounded user prompt, reporting whether the script
// had to be cut to fit the character ceiling.
func (e *Enricher) buildPrompt(script string, platform types.Platform, connected []string) (string, bool) {
	truncated := false
	if len(script) > e.cfg.MaxPromptChars {
		script = script[:e.cfg.MaxPromptChars]
		truncated = true
	}
	providers := append([]string{pricing.TemplateProvider}, connected...)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Target platform: %s (aspect ratio %s)\n", platform, platform.AspectRatio()))
	sb.WriteString(fmt.Sprintf("Available providers: %s\n\n", strings.Join(providers, ", ")))
	sb.WriteString("SCRIPT:\n")
	sb.WriteString(script)
	sb.WriteString("\n\nRespond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String(), truncated
}

// repair is the one extra round-trip: re-ask the model to fix its own
// malformed output verbatim, then retry extraction once.
func (e *Enricher) repair(ctx context.Context, raw string) (*llmAnalysis, error) {
	fixed, _, err := e.client.GenerateText(ctx, repairSystemPrompt, raw)
	if err != nil {
		return nil, fmt.Errorf("repair call: %w", err)
	}
	return parsePayload(fixed)
}

// assemble post-processes validated model output into a ScriptAnalysis:
// durations snapped, unknown providers replaced, costs re-derived against a
// fresh ledger, and the structure cross-checked against the deterministic
// segmentation.
func (e *Enricher) assemble(script string, platform types.Platform, connected []string, budget float64, p *llmAnalysis) *types.ScriptAnalysis {
	det := e.det.Analyze(script, platform, connected, budget)

	diverged := abs(len(p.Scenes)-len(det.Scenes)) > e.cfg.DivergenceThreshold
	if diverged {
		log.Info().
			Int("generative", len(p.Scenes)).
			Int("deterministic", len(det.Scenes)).
			Int("threshold", e.cfg.DivergenceThreshold).
			Msg("generative scene count diverged; keeping deterministic structure")
		return e.overlayCreative(det, p)
	}

	connectedSet := make(map[string]bool, len(connected))
	for _, c := range connected {
		connectedSet[c] = true
	}

	analysis := &types.ScriptAnalysis{
		Platform:        platform,
		WordCount:       len(strings.Fields(script)),
		Enriched:        true,
		OverallFeedback: p.OverallFeedback,
		NarrativeArc:    p.NarrativeArc,
	}

	ledger := score.NewLedger(budget)
	aspect := platform.AspectRatio()
	for i, ls := range p.Scenes {
		name := strings.ToLower(strings.TrimSpace(ls.Provider))
		spec, known := pricing.Lookup(name)
		if !known || (name != pricing.TemplateProvider && !connectedSet[name]) {
			if name != "" {
				analysis.Warnings = append(analysis.Warnings,
					fmt.Sprintf("scene %d: recommended provider %q is not connected; using %s", i+1, ls.Provider, pricing.TemplateProvider))
			}
			spec, _ = pricing.Lookup(pricing.TemplateProvider)
		}

		duration := pricing.Snap(ls.DurationSec, spec.Durations)
		model := spec.DefaultModel()
		cost := pricing.Cost(model.RatePerSec, duration)
		// Same first-come allocation as the scorer: a scene the ledger cannot
		// cover drops to the zero-cost fallback.
		if cost > ledger.Remaining()+1e-9 {
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("scene %d: %s cost $%.2f exceeds remaining budget; using %s", i+1, spec.Name, cost, pricing.TemplateProvider))
			spec, _ = pricing.Lookup(pricing.TemplateProvider)
			duration = pricing.Snap(ls.DurationSec, spec.Durations)
			model = spec.DefaultModel()
			cost = 0
		}

		text := strings.TrimSpace(ls.Excerpt)
		if text == "" {
			text = strings.TrimSpace(ls.Label)
		}
		dialogue, visual := segment.Features(text)
		analysis.Scenes = append(analysis.Scenes, types.Scene{
			Position:           i + 1,
			Excerpt:            segment.Excerpt(text, excerptLen),
			Text:               text,
			WordCount:          len(strings.Fields(text)),
			DurationSec:        duration,
			HasDialogue:        ls.HasDialogue || dialogue,
			HasVisualDirection: ls.HasBroll || visual,
			Provider:           spec.Name,
			Model:              model.Name,
			AspectRatio:        aspect,
			CostUSD:            cost,
			VisualDirection:    ls.VisualDirection,
			Rating:             normalizeRating(ls.Rating),
			Feedback:           ls.Feedback,
		})
		if cost > 0 {
			ledger.Debit(cost)
		}
	}

	analysis.SuggestedRewrites = clampRewrites(p.SuggestedRewrites, len(analysis.Scenes))
	recomputeAggregates(analysis)
	return analysis
}

// overlayCreative keeps the deterministic structure and attaches the
// generative creative fields positionally.
func (e *Enricher) overlayCreative(det *types.ScriptAnalysis, p *llmAnalysis) *types.ScriptAnalysis {
	out := cloneAnalysis(*det)
	out.Enriched = true
	out.OverallFeedback = p.OverallFeedback
	out.NarrativeArc = p.NarrativeArc
	out.Warnings = append(out.Warnings, "generative scene count diverged from the baseline; structural fields follow the deterministic segmentation")
	for i := range out.Scenes {
		if i >= len(p.Scenes) {
			break
		}
		out.Scenes[i].VisualDirection = p.Scenes[i].VisualDirection
		out.Scenes[i].Rating = normalizeRating(p.Scenes[i].Rating)
		out.Scenes[i].Feedback = p.Scenes[i].Feedback
	}
	out.SuggestedRewrites = clampRewrites(p.SuggestedRewrites, len(out.Scenes))
	return &out
}

// clampRewrites keeps only rewrites whose position exists in the final scene list.
func clampRewrites(rewrites []llmRewrite, sceneCount int) []types.Rewrite {
	var out []types.Rewrite
	for _, r := range rewrites {
		if r.Position >= 1 && r.Position <= sceneCount {
			out = append(out, types.Rewrite{Position: r.Position, Suggestion: r.Suggestion})
		}
	}
	return out
}

func normalizeRating(raw string) types.Rating {
	r := types.Rating(raw)
	if r.Valid() {
		return r
	}
	return types.RatingAdequate
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
