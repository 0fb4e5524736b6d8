package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all tuning knobs for the planning and rendering engine.
// Numbers here are heuristic tuning parameters, not correctness contracts.
type Config struct {
	Segment SegmentConfig `yaml:"segment"`
	Analyze AnalyzeConfig `yaml:"analyze"`
	Render  RenderConfig  `yaml:"render"`
	Server  ServerConfig  `yaml:"server"`
}

type SegmentConfig struct {
	MinScenes         int `yaml:"min_scenes"`
	MaxScenes         int `yaml:"max_scenes"`
	MinBlockWords     int `yaml:"min_block_words"`
	ChunkWordBudget   int `yaml:"chunk_word_budget"`
	ChunkMaxSentences int `yaml:"chunk_max_sentences"`
}

type AnalyzeConfig struct {
	Model               string  `yaml:"model"`
	Temperature         float64 `yaml:"temperature"`
	MaxPromptChars      int     `yaml:"max_prompt_chars"`
	CacheTTLSec         int     `yaml:"cache_ttl_sec"`
	CacheCap            int     `yaml:"cache_cap"`
	DivergenceThreshold int     `yaml:"divergence_threshold"`
	RequestTimeoutSec   int     `yaml:"request_timeout_sec"`
}

// CacheTTL returns the analysis cache TTL as a duration.
func (a AnalyzeConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSec) * time.Second
}

// RequestTimeout returns the AI request timeout as a duration.
func (a AnalyzeConfig) RequestTimeout() time.Duration {
	return time.Duration(a.RequestTimeoutSec) * time.Second
}

type RenderConfig struct {
	PollIntervalMS    int `yaml:"poll_interval_ms"`
	PollMaxIntervalMS int `yaml:"poll_max_interval_ms"`
	SceneTimeoutSec   int `yaml:"scene_timeout_sec"`
	MaxAttempts       int `yaml:"max_attempts"`
}

// PollInterval returns the initial poll interval.
func (r RenderConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMS) * time.Millisecond
}

// PollMaxInterval returns the backoff ceiling for polling.
func (r RenderConfig) PollMaxInterval() time.Duration {
	return time.Duration(r.PollMaxIntervalMS) * time.Millisecond
}

// SceneTimeout returns the per-scene render timeout.
func (r RenderConfig) SceneTimeout() time.Duration {
	return time.Duration(r.SceneTimeoutSec) * time.Second
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Secrets holds credentials. These never live in the YAML file; they come from
// the environment (godotenv loads .env in local dev).
type Secrets struct {
	OpenAIKey  string `envconfig:"OPENAI_API_KEY"`
	SoraKey    string `envconfig:"SORA_API_KEY"`
	HeygenKey  string `envconfig:"HEYGEN_API_KEY"`
	RunwayKey  string `envconfig:"RUNWAY_API_KEY"`
	AIBaseURL  string `envconfig:"AI_BASE_URL"`
	BindAddr   string `envconfig:"BIND_ADDR"`
}

// Default returns a Config with all knobs at their defaults.
func Default() *Config {
	return &Config{
		Segment: SegmentConfig{
			MinScenes:         1,
			MaxScenes:         12,
			MinBlockWords:     20,
			ChunkWordBudget:   50,
			ChunkMaxSentences: 3,
		},
		Analyze: AnalyzeConfig{
			Model:               "gpt-4o-mini",
			Temperature:         0.4,
			MaxPromptChars:      6000,
			CacheTTLSec:         600,
			CacheCap:            50,
			DivergenceThreshold: 3,
			RequestTimeoutSec:   60,
		},
		Render: RenderConfig{
			PollIntervalMS:    2000,
			PollMaxIntervalMS: 15000,
			SceneTimeoutSec:   600,
			MaxAttempts:       3,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config file and fills unset fields with defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults backfills zero values so a partial YAML file stays usable.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Segment.MinScenes <= 0 {
		c.Segment.MinScenes = d.Segment.MinScenes
	}
	if c.Segment.MaxScenes <= 0 {
		c.Segment.MaxScenes = d.Segment.MaxScenes
	}
	if c.Segment.MinBlockWords <= 0 {
		c.Segment.MinBlockWords = d.Segment.MinBlockWords
	}
	if c.Segment.ChunkWordBudget <= 0 {
		c.Segment.ChunkWordBudget = d.Segment.ChunkWordBudget
	}
	if c.Segment.ChunkMaxSentences <= 0 {
		c.Segment.ChunkMaxSentences = d.Segment.ChunkMaxSentences
	}
	if c.Analyze.Model == "" {
		c.Analyze.Model = d.Analyze.Model
	}
	if c.Analyze.MaxPromptChars <= 0 {
		c.Analyze.MaxPromptChars = d.Analyze.MaxPromptChars
	}
	if c.Analyze.CacheTTLSec <= 0 {
		c.Analyze.CacheTTLSec = d.Analyze.CacheTTLSec
	}
	if c.Analyze.CacheCap <= 0 {
		c.Analyze.CacheCap = d.Analyze.CacheCap
	}
	if c.Analyze.DivergenceThreshold <= 0 {
		c.Analyze.DivergenceThreshold = d.Analyze.DivergenceThreshold
	}
	if c.Analyze.RequestTimeoutSec <= 0 {
		c.Analyze.RequestTimeoutSec = d.Analyze.RequestTimeoutSec
	}
	if c.Render.PollIntervalMS <= 0 {
		c.Render.PollIntervalMS = d.Render.PollIntervalMS
	}
	if c.Render.PollMaxIntervalMS <= 0 {
		c.Render.PollMaxIntervalMS = d.Render.PollMaxIntervalMS
	}
	if c.Render.SceneTimeoutSec <= 0 {
		c.Render.SceneTimeoutSec = d.Render.SceneTimeoutSec
	}
	if c.Render.MaxAttempts <= 0 {
		c.Render.MaxAttempts = d.Render.MaxAttempts
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
}

// LoadSecrets reads credentials from the environment.
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &s, nil
}
