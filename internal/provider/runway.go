package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"reelforge/internal/pricing"
	"reelforge/internal/types"
)

const (
	defaultRunwayBaseURL = "https://api.dev.runwayml.com"
	runwayAPIVersion     = "2024-11-06"
)

// Runway drives the task-based cinematic backend. Unlike the others it
// reports fractional progress and rejects over-length prompts outright.
type Runway struct {
	base
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRunway builds the adapter. baseURL may be empty for the production endpoint.
func NewRunway(baseURL, apiKey string, client *http.Client) *Runway {
	if baseURL == "" {
		baseURL = defaultRunwayBaseURL
	}
	spec, _ := pricing.Lookup("runway")
	return &Runway{base: base{spec: spec}, baseURL: baseURL, apiKey: apiKey, client: client}
}

type runwayCreateRequest struct {
	PromptText string `json:"promptText"`
	Model      string `json:"model"`
	Duration   int    `json:"duration"`
	Ratio      string `json:"ratio"`
}

type runwayTask struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Progress float64  `json:"progress"` // 0..1
	Output   []string `json:"output"`
	Failure  string   `json:"failure"`
}

func (r *Runway) Submit(ctx context.Context, req SubmitRequest) (Submission, error) {
	if r.apiKey == "" {
		return Submission{}, fmt.Errorf("runway: no credential configured")
	}
	if len(req.Prompt) > r.spec.MaxPromptChars {
		return Submission{}, fmt.Errorf("%w: %d > %d chars", ErrPromptTooLong, len(req.Prompt), r.spec.MaxPromptChars)
	}

	body := runwayCreateRequest{
		PromptText: req.Prompt,
		Model:      r.spec.Model(req.Model).Name,
		Duration:   req.DurationSec,
		Ratio:      runwayRatio(req.AspectRatio),
	}

	var task runwayTask
	if err := doJSON(ctx, r.client, http.MethodPost, r.baseURL+"/v1/text_to_video", r.headers(), body, &task); err != nil {
		return Submission{}, fmt.Errorf("runway submit: %w", err)
	}
	if task.ID == "" {
		return Submission{}, fmt.Errorf("runway submit: response carried no task id")
	}
	return Submission{JobID: task.ID, State: types.JobQueued}, nil
}

func (r *Runway) Poll(ctx context.Context, jobID string) (PollResult, error) {
	var task runwayTask
	if err := doJSON(ctx, r.client, http.MethodGet, r.baseURL+"/v1/tasks/"+jobID, r.headers(), nil, &task); err != nil {
		return PollResult{}, fmt.Errorf("runway poll: %w", err)
	}

	res := PollResult{
		State:    runwayState(task.Status),
		Progress: int(math.Round(task.Progress * 100)),
	}
	switch res.State {
	case types.JobCompleted:
		if len(task.Output) > 0 {
			res.OutputRef = task.Output[0]
		}
		res.Progress = 100
	case types.JobFailed:
		res.Message = task.Failure
	}
	return res, nil
}

func (r *Runway) headers() map[string]string {
	return map[string]string{
		"Authorization":    "Bearer " + r.apiKey,
		"X-Runway-Version": runwayAPIVersion,
	}
}

func runwayState(status string) types.JobState {
	switch status {
	case "PENDING", "THROTTLED":
		return types.JobQueued
	case "RUNNING":
		return types.JobProcessing
	case "SUCCEEDED":
		return types.JobCompleted
	case "FAILED", "CANCELLED":
		return types.JobFailed
	default:
		return types.JobProcessing
	}
}

func runwayRatio(aspect string) string {
	switch aspect {
	case "9:16":
		return "720:1280"
	case "1:1":
		return "960:960"
	default:
		return "1280:720"
	}
}
