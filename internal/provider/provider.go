// Package provider unifies heterogeneous video-generation backends behind one
// submit/poll/estimate-cost interface. The adapter set is closed and built
// explicitly; looking up an unregistered name is a checked error.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/pricing"
	"reelforge/internal/types"
)

var (
	// ErrUnknownProvider means a plan referenced an adapter that was never
	// registered. This is a programmer/configuration error, not a runtime one.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrPromptTooLong is returned by adapters that reject over-length prompts
	// instead of truncating them. Never retried.
	ErrPromptTooLong = errors.New("prompt exceeds provider limit")

	// ErrTransient marks upstream failures worth retrying (5xx, 429, network).
	ErrTransient = errors.New("transient provider error")
)

// SubmitRequest carries one scene's submission parameters.
type SubmitRequest struct {
	Prompt      string
	DurationSec int
	AspectRatio string
	Model       string
}

// Submission is the adapter's answer to a submit call. Synchronous adapters
// may return a terminal state and an output reference immediately.
type Submission struct {
	JobID     string
	State     types.JobState
	OutputRef string
}

// PollResult is one observation of a job's state.
type PollResult struct {
	State             types.JobState
	Progress          int // 0-100, 0 when the backend reports none
	OutputRef         string
	RequiresAuthFetch bool
	Message           string // error detail when State is failed
}

// Adapter is the uniform contract every rendering backend implements.
type Adapter interface {
	Name() string
	Spec() pricing.ProviderSpec
	EstimateCost(durationSec int, model string) float64
	Submit(ctx context.Context, req SubmitRequest) (Submission, error)
	Poll(ctx context.Context, jobID string) (PollResult, error)
}

// base supplies the capability-derived methods shared by all adapters.
type base struct {
	spec pricing.ProviderSpec
}

func (b base) Name() string               { return b.spec.Name }
func (b base) Spec() pricing.ProviderSpec { return b.spec }

func (b base) EstimateCost(durationSec int, model string) float64 {
	return pricing.Cost(b.spec.Model(model).RatePerSec, durationSec)
}

// truncatePrompt enforces the provider's prompt ceiling by cutting.
func (b base) truncatePrompt(prompt string) string {
	if len(prompt) > b.spec.MaxPromptChars {
		return prompt[:b.spec.MaxPromptChars]
	}
	return prompt
}

// Registry is the closed, explicitly constructed adapter set.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry builds every known adapter. Adapters whose credential is missing
// are still registered — submission fails cleanly per scene rather than at
// startup, and the template fallback needs no credential at all.
func NewRegistry(secrets *config.Secrets) *Registry {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	return NewRegistryWith(
		NewTemplate(),
		NewHeygen("", secrets.HeygenKey, httpClient),
		NewSora("", secrets.SoraKey, httpClient),
		NewRunway("", secrets.RunwayKey, httpClient),
	)
}

// NewRegistryWith builds a registry from an explicit adapter list. Wiring and
// tests use it to substitute endpoints or fakes.
func NewRegistryWith(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return a, nil
}

// Names lists registered adapters in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// doJSON performs one JSON request/response round-trip against a vendor API,
// classifying retryable upstream failures as ErrTransient.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransient, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrTransient, resp.StatusCode, snippet(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet(data))
	}

	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func snippet(data []byte) string {
	const n = 200
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
