// Package api is the thin HTTP surface over the planning engine. It carries
// no auth or session handling; those belong to the surrounding application.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"reelforge/internal/analyze"
	"reelforge/internal/plan"
	"reelforge/internal/render"
	"reelforge/internal/types"
)

// Engine bundles the core components the handlers dispatch into.
type Engine struct {
	Analyzer *analyze.Analyzer
	Enricher *analyze.Enricher
	Driver   *render.Driver
}

// NewRouter mounts the planning endpoints.
func NewRouter(e *Engine) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler())
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", analyzeHandler(e))
		r.Post("/plans", plansHandler(e))
		r.Post("/plans/render", renderHandler(e))
	})
	return r
}

type analyzeRequest struct {
	Script             string         `json:"script"`
	Platform           types.Platform `json:"platform"`
	ConnectedProviders []string       `json:"connected_providers"`
	BudgetUSD          float64        `json:"budget_usd"`
	Enrich             bool           `json:"enrich"`
}

type plansRequest struct {
	Analysis *types.ScriptAnalysis `json:"analysis"`
	Edits    []types.SceneEdit     `json:"edits,omitempty"`
}

type renderRequest struct {
	Plan *types.RenderPlan `json:"plan"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func analyzeHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Script == "" {
			writeError(w, http.StatusBadRequest, "script is required")
			return
		}
		if req.Platform == "" {
			req.Platform = types.PlatformTikTok
		}

		var analysis *types.ScriptAnalysis
		if req.Enrich {
			analysis = e.Enricher.Enrich(r.Context(), req.Script, req.Platform, req.ConnectedProviders, req.BudgetUSD)
		}
		if analysis == nil {
			analysis = e.Analyzer.Analyze(req.Script, req.Platform, req.ConnectedProviders, req.BudgetUSD)
			if req.Enrich {
				analysis.Warnings = append(analysis.Warnings, "enrichment unavailable; deterministic analysis returned")
			}
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

func plansHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req plansRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		p, err := plan.Build(req.Analysis, req.Edits)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func renderHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Plan == nil || len(req.Plan.Scenes) == 0 {
			writeError(w, http.StatusBadRequest, "plan with at least one scene is required")
			return
		}
		result := e.Driver.Run(r.Context(), req.Plan)
		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Server wraps http.Server with sane timeouts for the planning endpoints.
func Server(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Rendering a plan can legitimately take minutes.
		WriteTimeout: 30 * time.Minute,
	}
}
