// Package analyze turns raw script text into a ScriptAnalysis: the
// deterministic baseline here, and the optional generative enrichment in
// generative.go.
package analyze

import (
	"fmt"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/pricing"
	"reelforge/internal/score"
	"reelforge/internal/segment"
	"reelforge/internal/types"
)

// excerptLen caps the display excerpt stored on a scene.
const excerptLen = 80

// Analyzer is the heuristic-only analysis pipeline. It never performs I/O and
// is safe for concurrent use.
type Analyzer struct {
	seg    segment.Options
	scorer *score.Scorer
}

// NewAnalyzer builds the deterministic analyzer from config.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		seg: segment.Options{
			MinFragments:      cfg.Segment.MinScenes,
			MaxFragments:      cfg.Segment.MaxScenes,
			MinBlockWords:     cfg.Segment.MinBlockWords,
			ChunkWordBudget:   cfg.Segment.ChunkWordBudget,
			ChunkMaxSentences: cfg.Segment.ChunkMaxSentences,
		},
		scorer: score.New(score.DefaultWeights()),
	}
}

// SegmentOptions exposes the analyzer's segmentation bounds.
func (a *Analyzer) SegmentOptions() segment.Options {
	return a.seg
}

// Analyze produces the deterministic baseline analysis. It always succeeds.
func (a *Analyzer) Analyze(script string, platform types.Platform, connected []string, budget float64) *types.ScriptAnalysis {
	frags, strategy := segment.Split(script, a.seg)

	analysis := &types.ScriptAnalysis{
		Platform:  platform,
		WordCount: len(strings.Fields(script)),
	}

	ledger := score.NewLedger(budget)
	aspect := platform.AspectRatio()
	for _, frag := range frags {
		ranked := a.scorer.Rank(frag, platform, connected, ledger.Remaining())
		chosen := ranked[0]

		if downgraded(ranked) {
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("scene %d: assigned %s because the remaining budget ($%.2f) cannot cover a better-matched provider", frag.Index, chosen.Provider, ledger.Remaining()))
		}
		if frag.Placeholder {
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("scene %d: padded to reach the minimum scene count", frag.Index))
		}

		analysis.Scenes = append(analysis.Scenes, types.Scene{
			Position:           frag.Index,
			Excerpt:            segment.Excerpt(frag.Text, excerptLen),
			Text:               frag.Text,
			WordCount:          frag.WordCount,
			DurationSec:        chosen.DurationSec,
			HasDialogue:        frag.HasDialogue,
			HasVisualDirection: frag.HasVisualDirection,
			Provider:           chosen.Provider,
			Model:              chosen.Model,
			AspectRatio:        aspect,
			CostUSD:            chosen.CostUSD,
		})
		if chosen.CostUSD > 0 {
			ledger.Debit(chosen.CostUSD)
		}
	}

	if strategy == segment.StrategySentences && len(frags) == a.seg.MaxFragments {
		analysis.Warnings = append(analysis.Warnings, "script truncated to the maximum scene count")
	}

	recomputeAggregates(analysis)
	return analysis
}

// downgraded reports whether budget pressure forced a weaker choice: some
// candidate outranked the winner before the budget penalty was applied.
func downgraded(ranked []score.Candidate) bool {
	top := ranked[0]
	for _, c := range ranked[1:] {
		if c.OverBudget && c.BaseScore > top.BaseScore {
			return true
		}
	}
	return false
}

// recomputeAggregates derives duration and cost sums from the scenes. The
// aggregates are never stored independently of their source.
func recomputeAggregates(a *types.ScriptAnalysis) {
	var dur int
	var cost float64
	for _, s := range a.Scenes {
		dur += s.DurationSec
		cost += s.CostUSD
	}
	a.TotalDurationSec = dur
	a.TotalCostUSD = pricing.Round2(cost)
}
