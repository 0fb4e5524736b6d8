package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelforge/internal/types"
)

func ptr[T any](v T) *T { return &v }

func twoSceneAnalysis() *types.ScriptAnalysis {
	return &types.ScriptAnalysis{
		Platform: types.PlatformTikTok,
		Scenes: []types.Scene{
			{
				Position: 1, Excerpt: "Hook about savings.", Text: "Hook about savings.",
				WordCount: 3, DurationSec: 4, Provider: "template", Model: "storyboard",
				AspectRatio: "9:16", CostUSD: 0,
			},
			{
				Position: 2, Excerpt: "Show the product dashboard.", Text: "Show the product dashboard.",
				WordCount: 4, DurationSec: 12, Provider: "sora", Model: "sora-2",
				AspectRatio: "9:16", CostUSD: 1.20,
				VisualDirection: "Screen recording with cursor",
			},
		},
		TotalDurationSec: 16,
		TotalCostUSD:     1.20,
	}
}

func TestBuildBasic(t *testing.T) {
	p, err := Build(twoSceneAnalysis(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, types.PlatformTikTok, p.Platform)
	assert.True(t, p.Stitch)
	require.Len(t, p.Scenes, 2)

	assert.Equal(t, "Hook about savings.", p.Scenes[0].Prompt)
	assert.Contains(t, p.Scenes[1].Prompt, "Show the product dashboard.")
	assert.Contains(t, p.Scenes[1].Prompt, "Visual direction: Screen recording with cursor")

	assert.Equal(t, 16, p.TotalDurationSec)
	assert.InDelta(t, 1.20, p.TotalCostUSD, 1e-9)
}

func TestBuildSingleSceneNoStitch(t *testing.T) {
	a := twoSceneAnalysis()
	a.Scenes = a.Scenes[:1]

	p, err := Build(a, nil)
	require.NoError(t, err)
	assert.False(t, p.Stitch)
}

func TestBuildProviderOverrideReprices(t *testing.T) {
	edits := []types.SceneEdit{{Position: 2, Provider: ptr("runway")}}

	p, err := Build(twoSceneAnalysis(), edits)
	require.NoError(t, err)

	s := p.Scenes[1]
	assert.Equal(t, "runway", s.Provider)
	// A provider override resets the model to the new provider's default and
	// re-snaps the duration into its bucket set.
	assert.Equal(t, "gen3a-turbo", s.Model)
	assert.Equal(t, 10, s.DurationSec)
	assert.InDelta(t, 0.50, s.CostUSD, 1e-9)
	assert.InDelta(t, 0.50, p.TotalCostUSD, 1e-9)
}

func TestBuildDurationEditSnapsToBucket(t *testing.T) {
	edits := []types.SceneEdit{{Position: 2, DurationSec: ptr(7)}}

	p, err := Build(twoSceneAnalysis(), edits)
	require.NoError(t, err)
	// 7s is unsupported on sora {4, 8, 12}; it snaps to 8 and re-prices.
	assert.Equal(t, 8, p.Scenes[1].DurationSec)
	assert.InDelta(t, 0.80, p.Scenes[1].CostUSD, 1e-9)
}

func TestBuildModelEdit(t *testing.T) {
	edits := []types.SceneEdit{{Position: 2, Model: ptr("sora-2-pro")}}

	p, err := Build(twoSceneAnalysis(), edits)
	require.NoError(t, err)
	assert.Equal(t, "sora-2-pro", p.Scenes[1].Model)
	assert.InDelta(t, 3.60, p.Scenes[1].CostUSD, 1e-9)
}

func TestBuildAspectEdit(t *testing.T) {
	edits := []types.SceneEdit{{Position: 1, AspectRatio: ptr("1:1")}}

	p, err := Build(twoSceneAnalysis(), edits)
	require.NoError(t, err)
	assert.Equal(t, "1:1", p.Scenes[0].AspectRatio)
	assert.Equal(t, "9:16", p.Scenes[1].AspectRatio)
}

func TestBuildRejectsBadEditPosition(t *testing.T) {
	_, err := Build(twoSceneAnalysis(), []types.SceneEdit{{Position: 5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene 5")
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	_, err := Build(twoSceneAnalysis(), []types.SceneEdit{{Position: 1, Provider: ptr("kling")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestBuildRejectsEmptyAnalysis(t *testing.T) {
	_, err := Build(nil, nil)
	assert.Error(t, err)

	_, err = Build(&types.ScriptAnalysis{}, nil)
	assert.Error(t, err)
}
