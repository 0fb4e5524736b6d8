package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"reelforge/internal/pricing"
	"reelforge/internal/segment"
	"reelforge/internal/types"
)

// Template is the zero-cost synchronous fallback. It exists so the full flow
// stays exercisable in workspaces with no paid credential: instead of a video
// it produces a structural storyboard derived from the prompt text, using the
// same segmentation strategies as the analyzer.
type Template struct {
	base
}

// NewTemplate builds the fallback adapter.
func NewTemplate() *Template {
	spec, _ := pricing.Lookup(pricing.TemplateProvider)
	return &Template{base: base{spec: spec}}
}

type storyboardScene struct {
	Index       int    `json:"index"`
	Text        string `json:"text"`
	HasDialogue bool   `json:"has_dialogue"`
	HasBroll    bool   `json:"has_broll"`
}

type storyboard struct {
	DurationSec int               `json:"duration_sec"`
	AspectRatio string            `json:"aspect_ratio"`
	Scenes      []storyboardScene `json:"scenes"`
}

// Submit completes immediately. The output reference is an inline data URI
// holding the storyboard JSON; no follow-up poll or fetch is needed.
func (t *Template) Submit(_ context.Context, req SubmitRequest) (Submission, error) {
	frags, _ := segment.Split(t.truncatePrompt(req.Prompt), segment.DefaultOptions())

	board := storyboard{
		DurationSec: req.DurationSec,
		AspectRatio: req.AspectRatio,
	}
	for _, f := range frags {
		board.Scenes = append(board.Scenes, storyboardScene{
			Index:       f.Index,
			Text:        f.Text,
			HasDialogue: f.HasDialogue,
			HasBroll:    f.HasVisualDirection,
		})
	}
	data, err := json.Marshal(board)
	if err != nil {
		return Submission{}, fmt.Errorf("encode storyboard: %w", err)
	}

	return Submission{
		JobID:     "tmpl-" + uuid.NewString(),
		State:     types.JobCompleted,
		OutputRef: "data:application/json;base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Poll exists to satisfy the interface; template jobs are terminal at submit.
func (t *Template) Poll(_ context.Context, _ string) (PollResult, error) {
	return PollResult{State: types.JobCompleted, Progress: 100}, nil
}
