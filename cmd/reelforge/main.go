package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reelforge/internal/analyze"
	"reelforge/internal/config"
	"reelforge/internal/plan"
	"reelforge/internal/provider"
	"reelforge/internal/render"
	"reelforge/internal/types"
)

// runState is the JSON artifact persisted for one pipeline run.
type runState struct {
	RunID       string                `json:"run_id"`
	StartedAt   string                `json:"started_at"`
	CompletedAt string                `json:"completed_at"`
	Analysis    *types.ScriptAnalysis `json:"analysis,omitempty"`
	Plan        *types.RenderPlan     `json:"plan,omitempty"`
	Result      *types.RenderResult   `json:"result,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func main() {
	// Load .env (local dev only — deployments use real env vars).
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		scriptPath = flag.String("script", "", "path to the script text file (required)")
		platform   = flag.String("platform", "tiktok", "target platform: tiktok, youtube, instagram")
		providers  = flag.String("providers", "template", "comma-separated connected providers")
		budget     = flag.Float64("budget", 0, "remaining budget in USD for this billing period")
		enrich     = flag.Bool("enrich", false, "run the generative enrichment pass")
		doRender   = flag.Bool("render", false, "submit the plan to the providers")
		outDir     = flag.String("out", "output", "output directory for run artifacts")
	)
	flag.Parse()

	if *scriptPath == "" {
		log.Fatal().Msg("-script is required")
	}
	scriptBytes, err := os.ReadFile(*scriptPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read script")
	}
	script := string(scriptBytes)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Fatal().Err(err).Msg("load secrets")
	}

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(*outDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", runDir).Msg("create run dir")
	}
	log.Info().Str("run_id", runID).Str("dir", runDir).Msg("reelforge pipeline starting")

	ctx := context.Background()
	state := &runState{RunID: runID, StartedAt: time.Now().UTC().Format(time.RFC3339)}

	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveJSON(filepath.Join(runDir, "run_state.json"), state)
		if state.Error != "" {
			log.Error().Str("error", state.Error).Msg("pipeline failed")
			os.Exit(1)
		}
		log.Info().Msg("pipeline complete")
	}()

	connected := splitCSV(*providers)
	pf := types.Platform(*platform)

	// Stage 1: analysis (generative pass first when asked; deterministic
	// baseline is always the fallback).
	analyzer := analyze.NewAnalyzer(cfg)
	var analysis *types.ScriptAnalysis
	if *enrich {
		client := newAIClient(cfg, secrets)
		cache := analyze.NewCache(cfg.Analyze.CacheTTL(), cfg.Analyze.CacheCap)
		enricher := analyze.NewEnricher(cfg.Analyze, client, cache, analyzer)
		analysis = enricher.Enrich(ctx, script, pf, connected, *budget)
		if analysis == nil {
			log.Warn().Msg("enrichment unavailable, using deterministic analysis")
		}
	}
	if analysis == nil {
		analysis = analyzer.Analyze(script, pf, connected, *budget)
	}
	state.Analysis = analysis
	saveJSON(filepath.Join(runDir, "analysis.json"), analysis)
	log.Info().
		Int("scenes", len(analysis.Scenes)).
		Int("duration_sec", analysis.TotalDurationSec).
		Float64("cost_usd", analysis.TotalCostUSD).
		Bool("enriched", analysis.Enriched).
		Msg("analysis ready")

	// Stage 2: plan.
	renderPlan, err := plan.Build(analysis, nil)
	if err != nil {
		state.Error = "plan: " + err.Error()
		return
	}
	state.Plan = renderPlan
	saveJSON(filepath.Join(runDir, "plan.json"), renderPlan)
	log.Info().Str("plan_id", renderPlan.ID).Bool("stitch", renderPlan.Stitch).Msg("plan ready")

	if !*doRender {
		return
	}

	// Stage 3: render.
	registry := provider.NewRegistry(secrets)
	driver := render.New(registry, cfg.Render)
	result := driver.Run(ctx, renderPlan)
	state.Result = result
	saveJSON(filepath.Join(runDir, "result.json"), result)
	log.Info().
		Int("completed", result.Completed).
		Int("failed", result.Failed).
		Int("unknown", result.Unknown).
		Msg("render finished")
}

// newAIClient returns nil when no credential is configured, which makes the
// enricher degrade to the deterministic baseline.
func newAIClient(cfg *config.Config, secrets *config.Secrets) analyze.AIClient {
	if secrets.OpenAIKey == "" {
		return nil
	}
	client, err := analyze.NewOpenAIClient(cfg.Analyze, secrets.OpenAIKey, secrets.AIBaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("ai client unavailable")
		return nil
	}
	return client
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func saveJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not marshal JSON")
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not save file")
	}
}
