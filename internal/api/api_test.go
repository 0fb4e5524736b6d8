package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelforge/internal/analyze"
	"reelforge/internal/config"
	"reelforge/internal/provider"
	"reelforge/internal/render"
	"reelforge/internal/types"
)

func newTestEngine() *Engine {
	cfg := config.Default()
	analyzer := analyze.NewAnalyzer(cfg)
	return &Engine{
		Analyzer: analyzer,
		Enricher: analyze.NewEnricher(cfg.Analyze, nil, analyze.NewCache(time.Minute, 10), analyzer),
		Driver:   render.New(provider.NewRegistryWith(provider.NewTemplate()), cfg.Render),
	}
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := NewRouter(newTestEngine())
	rec := doRequest(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := NewRouter(newTestEngine())
	rec := doRequest(t, router, http.MethodPost, "/api/analyze", map[string]any{
		"script":   "Scene 1: Hook about savings. Scene 2: Show the product dashboard.",
		"platform": "tiktok",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.ScriptAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, types.PlatformTikTok, got.Platform)
	require.Len(t, got.Scenes, 2)
	assert.Equal(t, "9:16", got.Scenes[0].AspectRatio)
}

func TestAnalyzeEndpointDefaultsPlatform(t *testing.T) {
	router := NewRouter(newTestEngine())
	rec := doRequest(t, router, http.MethodPost, "/api/analyze", map[string]any{
		"script": "A short script about nothing in particular.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.ScriptAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, types.PlatformTikTok, got.Platform)
}

func TestAnalyzeEndpointEnrichFallsBack(t *testing.T) {
	// No AI client is configured, so enrich degrades to the deterministic
	// result with an explicit warning.
	router := NewRouter(newTestEngine())
	rec := doRequest(t, router, http.MethodPost, "/api/analyze", map[string]any{
		"script": "Scene 1: Hook. Scene 2: Demo.",
		"enrich": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.ScriptAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Enriched)
	assert.Contains(t, got.Warnings, "enrichment unavailable; deterministic analysis returned")
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	router := NewRouter(newTestEngine())

	rec := doRequest(t, router, http.MethodPost, "/api/analyze", map[string]any{"platform": "tiktok"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestPlansEndpoint(t *testing.T) {
	router := NewRouter(newTestEngine())
	analysis := types.ScriptAnalysis{
		Platform: types.PlatformTikTok,
		Scenes: []types.Scene{
			{Position: 1, Excerpt: "Hook.", WordCount: 2, DurationSec: 4, Provider: "template", Model: "storyboard", AspectRatio: "9:16"},
		},
	}

	rec := doRequest(t, router, http.MethodPost, "/api/plans", map[string]any{"analysis": analysis})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got types.RenderPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Stitch)
	require.Len(t, got.Scenes, 1)
}

func TestPlansEndpointRejectsEmptyAnalysis(t *testing.T) {
	router := NewRouter(newTestEngine())
	rec := doRequest(t, router, http.MethodPost, "/api/plans", map[string]any{
		"analysis": types.ScriptAnalysis{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRenderEndpoint(t *testing.T) {
	router := NewRouter(newTestEngine())
	plan := types.RenderPlan{
		ID:       "plan-api-1",
		Platform: types.PlatformTikTok,
		Scenes: []types.PlanScene{
			{Position: 1, Provider: "template", Prompt: "Hook about savings.", DurationSec: 4, AspectRatio: "9:16"},
		},
	}

	rec := doRequest(t, router, http.MethodPost, "/api/plans/render", map[string]any{"plan": plan})
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.RenderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "plan-api-1", got.PlanID)
	assert.Equal(t, 1, got.Completed)
	assert.True(t, got.AllCompleted())
}

func TestRenderEndpointRejectsEmptyPlan(t *testing.T) {
	router := NewRouter(newTestEngine())
	rec := doRequest(t, router, http.MethodPost, "/api/plans/render", map[string]any{
		"plan": types.RenderPlan{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
