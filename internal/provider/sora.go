package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"reelforge/internal/pricing"
	"reelforge/internal/types"
)

const defaultSoraBaseURL = "https://api.openai.com/v1"

// Sora drives OpenAI's video generation API: create a video job, then poll it.
// Completed output is not a public URL — it must be downloaded with the same
// API credential, which the adapter surfaces via RequiresAuthFetch.
type Sora struct {
	base
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSora builds the adapter. baseURL may be empty for the production endpoint.
func NewSora(baseURL, apiKey string, client *http.Client) *Sora {
	if baseURL == "" {
		baseURL = defaultSoraBaseURL
	}
	spec, _ := pricing.Lookup("sora")
	return &Sora{base: base{spec: spec}, baseURL: baseURL, apiKey: apiKey, client: client}
}

type soraCreateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Seconds string `json:"seconds"`
	Size    string `json:"size"`
}

type soraVideo struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Sora) Submit(ctx context.Context, req SubmitRequest) (Submission, error) {
	if s.apiKey == "" {
		return Submission{}, fmt.Errorf("sora: no credential configured")
	}
	prompt := req.Prompt
	if len(prompt) > s.spec.MaxPromptChars {
		log.Warn().Int("len", len(prompt)).Int("max", s.spec.MaxPromptChars).Msg("sora prompt truncated")
		prompt = s.truncatePrompt(prompt)
	}

	model := s.spec.Model(req.Model).Name
	body := soraCreateRequest{
		Model:   model,
		Prompt:  prompt,
		Seconds: strconv.Itoa(req.DurationSec),
		Size:    soraSize(req.AspectRatio),
	}

	var video soraVideo
	if err := doJSON(ctx, s.client, http.MethodPost, s.baseURL+"/videos", s.headers(), body, &video); err != nil {
		return Submission{}, fmt.Errorf("sora submit: %w", err)
	}
	if video.ID == "" {
		return Submission{}, fmt.Errorf("sora submit: response carried no job id")
	}
	return Submission{JobID: video.ID, State: soraState(video.Status)}, nil
}

func (s *Sora) Poll(ctx context.Context, jobID string) (PollResult, error) {
	var video soraVideo
	if err := doJSON(ctx, s.client, http.MethodGet, s.baseURL+"/videos/"+jobID, s.headers(), nil, &video); err != nil {
		return PollResult{}, fmt.Errorf("sora poll: %w", err)
	}

	res := PollResult{State: soraState(video.Status), Progress: video.Progress}
	switch res.State {
	case types.JobCompleted:
		res.OutputRef = s.baseURL + "/videos/" + jobID + "/content"
		res.RequiresAuthFetch = true
		res.Progress = 100
	case types.JobFailed:
		if video.Error != nil {
			res.Message = video.Error.Message
		}
	}
	return res, nil
}

func (s *Sora) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.apiKey}
}

func soraState(status string) types.JobState {
	switch status {
	case "queued":
		return types.JobQueued
	case "in_progress":
		return types.JobProcessing
	case "completed":
		return types.JobCompleted
	case "failed":
		return types.JobFailed
	default:
		return types.JobProcessing
	}
}

func soraSize(aspect string) string {
	switch aspect {
	case "9:16":
		return "720x1280"
	default:
		return "1280x720"
	}
}
