package analyze

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"reelforge/internal/config"
)

// Chat-completion pricing per million tokens, used only for the usage metric.
const (
	pricePerMillionInputTokensUSD  = 0.15
	pricePerMillionOutputTokensUSD = 0.60
)

// ErrAIGenerationFailed wraps any failure of the generative-model call.
var ErrAIGenerationFailed = errors.New("ai generation failed")

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_ai_requests_total",
			Help: "Total number of requests to the generative model API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_ai_request_duration_seconds",
			Help:    "Histogram of generative model request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiTotalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_ai_total_tokens",
			Help:    "Histogram of total token counts per request.",
			Buckets: prometheus.LinearBuckets(350, 350, 20),
		},
		[]string{"model"},
	)
	aiEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_ai_estimated_cost_usd_total",
			Help: "Estimated total cost of generative model requests in USD.",
		},
		[]string{"model"},
	)
)

// Usage reports token consumption and estimated cost of one model call.
// This is API usage accounting, unrelated to the render budget ledger.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
}

// AIClient is the minimal surface the enricher needs from a generative model.
type AIClient interface {
	GenerateText(ctx context.Context, systemPrompt, userInput string) (string, Usage, error)
}

func estimateCallCost(promptTokens, completionTokens int) float64 {
	in := float64(promptTokens) * pricePerMillionInputTokensUSD / 1_000_000.0
	out := float64(completionTokens) * pricePerMillionOutputTokensUSD / 1_000_000.0
	return in + out
}

// openAIClient implements AIClient with go-openai.
type openAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIClient builds the chat-completion client. baseURL may be empty for
// the default endpoint.
func NewOpenAIClient(cfg config.AnalyzeConfig, apiKey, baseURL string) (AIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout()}
	return &openAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
	}, nil
}

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt, userInput string) (string, Usage, error) {
	usage := Usage{}
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userInput})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	duration := time.Since(start)

	if err != nil {
		log.Error().Err(err).Str("model", c.model).Dur("duration", duration).Msg("generative model request failed")
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
		usage.EstimatedCostUSD = estimateCallCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		aiTotalTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.Usage.TotalTokens))
		if usage.EstimatedCostUSD > 0 {
			aiEstimatedCostUSD.With(prometheus.Labels{"model": c.model}).Add(usage.EstimatedCostUSD)
		}
	}

	log.Debug().
		Str("model", c.model).
		Dur("duration", duration).
		Int("total_tokens", usage.TotalTokens).
		Msg("generative model response received")

	return resp.Choices[0].Message.Content, usage, nil
}
