package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reelforge/internal/analyze"
	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/provider"
	"reelforge/internal/render"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Fatal().Err(err).Msg("load secrets")
	}

	analyzer := analyze.NewAnalyzer(cfg)
	cache := analyze.NewCache(cfg.Analyze.CacheTTL(), cfg.Analyze.CacheCap)

	var client analyze.AIClient
	if secrets.OpenAIKey != "" {
		client, err = analyze.NewOpenAIClient(cfg.Analyze, secrets.OpenAIKey, secrets.AIBaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("ai client unavailable, enrichment disabled")
		}
	} else {
		log.Info().Msg("no OPENAI_API_KEY set, enrichment disabled")
	}

	registry := provider.NewRegistry(secrets)
	engine := &api.Engine{
		Analyzer: analyzer,
		Enricher: analyze.NewEnricher(cfg.Analyze, client, cache, analyzer),
		Driver:   render.New(registry, cfg.Render),
	}

	router := api.NewRouter(engine)
	router.Handle("/metrics", promhttp.Handler())

	addr := cfg.Server.Addr
	if secrets.BindAddr != "" {
		addr = secrets.BindAddr
	}
	log.Info().Str("addr", addr).Msg("reelforge server listening")
	if err := api.Server(addr, router).ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
