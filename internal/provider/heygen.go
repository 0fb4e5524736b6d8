package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"reelforge/internal/pricing"
	"reelforge/internal/types"
)

const defaultHeygenBaseURL = "https://api.heygen.com"

// Heygen drives the avatar/talking-head backend. Submission returns a video
// id; the status endpoint reports a directly usable download URL once done.
type Heygen struct {
	base
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHeygen builds the adapter. baseURL may be empty for the production endpoint.
func NewHeygen(baseURL, apiKey string, client *http.Client) *Heygen {
	if baseURL == "" {
		baseURL = defaultHeygenBaseURL
	}
	spec, _ := pricing.Lookup("heygen")
	return &Heygen{base: base{spec: spec}, baseURL: baseURL, apiKey: apiKey, client: client}
}

type heygenGenerateRequest struct {
	VideoInputs []heygenVideoInput `json:"video_inputs"`
	Dimension   heygenDimension    `json:"dimension"`
}

type heygenVideoInput struct {
	Voice heygenVoice `json:"voice"`
}

type heygenVoice struct {
	Type      string `json:"type"`
	InputText string `json:"input_text"`
}

type heygenDimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type heygenGenerateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type heygenStatusResponse struct {
	Data struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

func (h *Heygen) Submit(ctx context.Context, req SubmitRequest) (Submission, error) {
	if h.apiKey == "" {
		return Submission{}, fmt.Errorf("heygen: no credential configured")
	}

	w, ht := heygenDimensions(req.AspectRatio)
	body := heygenGenerateRequest{
		VideoInputs: []heygenVideoInput{{Voice: heygenVoice{Type: "text", InputText: h.truncatePrompt(req.Prompt)}}},
		Dimension:   heygenDimension{Width: w, Height: ht},
	}

	var resp heygenGenerateResponse
	if err := doJSON(ctx, h.client, http.MethodPost, h.baseURL+"/v2/video/generate", h.headers(), body, &resp); err != nil {
		return Submission{}, fmt.Errorf("heygen submit: %w", err)
	}
	if resp.Error != nil {
		return Submission{}, fmt.Errorf("heygen submit: %s", resp.Error.Message)
	}
	if resp.Data.VideoID == "" {
		return Submission{}, fmt.Errorf("heygen submit: response carried no video id")
	}
	return Submission{JobID: resp.Data.VideoID, State: types.JobQueued}, nil
}

func (h *Heygen) Poll(ctx context.Context, jobID string) (PollResult, error) {
	u := h.baseURL + "/v1/video_status.get?video_id=" + url.QueryEscape(jobID)
	var resp heygenStatusResponse
	if err := doJSON(ctx, h.client, http.MethodGet, u, h.headers(), nil, &resp); err != nil {
		return PollResult{}, fmt.Errorf("heygen poll: %w", err)
	}

	res := PollResult{State: heygenState(resp.Data.Status)}
	switch res.State {
	case types.JobCompleted:
		res.OutputRef = resp.Data.VideoURL
		res.Progress = 100
	case types.JobFailed:
		if resp.Data.Error != nil {
			res.Message = resp.Data.Error.Message
		}
	}
	return res, nil
}

func (h *Heygen) headers() map[string]string {
	return map[string]string{"X-Api-Key": h.apiKey}
}

func heygenState(status string) types.JobState {
	switch status {
	case "pending", "waiting":
		return types.JobQueued
	case "processing":
		return types.JobProcessing
	case "completed":
		return types.JobCompleted
	case "failed":
		return types.JobFailed
	default:
		return types.JobProcessing
	}
}

func heygenDimensions(aspect string) (int, int) {
	if aspect == "9:16" {
		return 720, 1280
	}
	return 1280, 720
}
