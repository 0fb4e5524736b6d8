// Package plan converts a script analysis into a committed render plan.
// Building a plan is a pure transformation: no I/O, no clock, no randomness
// beyond the plan ID.
package plan

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"reelforge/internal/pricing"
	"reelforge/internal/types"
)

// Build fixes each scene's provider, model, duration, aspect ratio and cost as
// final. Edits, if supplied, override individual scenes before finalization;
// durations are re-snapped and costs re-derived so the plan's invariants hold
// regardless of what the edits asked for.
func Build(analysis *types.ScriptAnalysis, edits []types.SceneEdit) (*types.RenderPlan, error) {
	if analysis == nil || len(analysis.Scenes) == 0 {
		return nil, fmt.Errorf("analysis has no scenes")
	}

	byPosition := make(map[int]types.SceneEdit, len(edits))
	for _, e := range edits {
		if e.Position < 1 || e.Position > len(analysis.Scenes) {
			return nil, fmt.Errorf("edit references scene %d; plan has %d scenes", e.Position, len(analysis.Scenes))
		}
		byPosition[e.Position] = e
	}

	p := &types.RenderPlan{
		ID:       uuid.NewString(),
		Platform: analysis.Platform,
		Stitch:   len(analysis.Scenes) > 1,
	}

	for _, scene := range analysis.Scenes {
		committed, err := commitScene(scene, byPosition[scene.Position])
		if err != nil {
			return nil, err
		}
		p.Scenes = append(p.Scenes, committed)
		p.TotalDurationSec += committed.DurationSec
		p.TotalCostUSD += committed.CostUSD
	}
	p.TotalCostUSD = pricing.Round2(p.TotalCostUSD)
	return p, nil
}

func commitScene(scene types.Scene, edit types.SceneEdit) (types.PlanScene, error) {
	providerName := scene.Provider
	if edit.Provider != nil {
		providerName = *edit.Provider
	}
	spec, ok := pricing.Lookup(providerName)
	if !ok {
		return types.PlanScene{}, fmt.Errorf("scene %d: unknown provider %q", scene.Position, providerName)
	}

	modelName := scene.Model
	if edit.Provider != nil {
		// A provider override invalidates the analyzed model choice.
		modelName = spec.DefaultModel().Name
	}
	if edit.Model != nil {
		modelName = *edit.Model
	}
	model := spec.Model(modelName)

	duration := scene.DurationSec
	if edit.DurationSec != nil {
		duration = *edit.DurationSec
	}
	if !spec.SupportsDuration(duration) {
		duration = pricing.Snap(float64(duration), spec.Durations)
	}

	aspect := scene.AspectRatio
	if edit.AspectRatio != nil {
		aspect = *edit.AspectRatio
	}

	return types.PlanScene{
		Position:    scene.Position,
		Excerpt:     scene.Excerpt,
		Prompt:      renderPrompt(scene),
		DurationSec: duration,
		Provider:    spec.Name,
		Model:       model.Name,
		AspectRatio: aspect,
		CostUSD:     pricing.Cost(model.RatePerSec, duration),
	}, nil
}

// renderPrompt composes the submission prompt from the scene text and any
// generative visual direction.
func renderPrompt(scene types.Scene) string {
	prompt := strings.TrimSpace(scene.Text)
	if prompt == "" {
		prompt = scene.Excerpt
	}
	if scene.VisualDirection != "" {
		prompt += "\n\nVisual direction: " + scene.VisualDirection
	}
	return prompt
}
