package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
)

// Config holds the server configuration settings.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Submission SubmissionConfig `yaml:"submission"`
	Beatmap    BeatmapConfig    `yaml:"beatmap"`
	Processor  ProcessorConfig  `yaml:"processor"`
	Replay     ReplayConfig     `yaml:"replay"`
}

// HTTPConfig holds the listen address.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// SubmissionConfig holds the submission pipeline knobs.
type SubmissionConfig struct {
	// Metric is the active leaderboard metric: "pp" or "score".
	Metric domain.Metric `yaml:"metric"`
	// FreshnessWindow bounds how old a submission timestamp may be.
	FreshnessWindow time.Duration `yaml:"freshness_window"`
}

// BeatmapConfig holds the beatmap provider and cache settings.
type BeatmapConfig struct {
	BaseURL       string        `yaml:"base_url"`
	CacheCapacity int           `yaml:"cache_capacity"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	// FetchRatePerSecond bounds upstream provider fetches.
	FetchRatePerSecond float64 `yaml:"fetch_rate_per_second"`
	FetchBurst         int     `yaml:"fetch_burst"`
}

// ProcessorConfig points at the external difficulty processor, which owns
// performance calculation and replay decoding.
type ProcessorConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ReplayConfig holds the replay cross-validation tolerances.
type ReplayConfig struct {
	MinVersion        int     `yaml:"min_version"`
	AccuracyTolerance float64 `yaml:"accuracy_tolerance"`
	HitCountTolerance int     `yaml:"hit_count_tolerance"`
	ComboTolerance    int     `yaml:"combo_tolerance"`
	SpeedTolerance    float64 `yaml:"speed_tolerance"`
	ScoreRelativeTol  float64 `yaml:"score_relative_tolerance"`
}

// Load reads the yaml config at path. DATABASE_URL and LISTEN_ADDR
// environment variables override their file counterparts.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Submission: SubmissionConfig{
			Metric:          domain.MetricPerformance,
			FreshnessWindow: 10 * time.Second,
		},
		Beatmap: BeatmapConfig{
			BaseURL:            "http://127.0.0.1:8081",
			CacheCapacity:      2048,
			CacheTTL:           10 * time.Minute,
			FetchRatePerSecond: 10,
			FetchBurst:         5,
		},
		Processor: ProcessorConfig{
			BaseURL: "http://127.0.0.1:3006",
		},
		Replay: ReplayConfig{
			MinVersion:        3,
			AccuracyTolerance: 0.01,
			HitCountTolerance: 3,
			ComboTolerance:    3,
			SpeedTolerance:    0.01,
			ScoreRelativeTol:  0.15,
		},
	}
}

func (c *Config) validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if !c.Submission.Metric.Valid() {
		return fmt.Errorf("submission.metric must be %q or %q, got %q",
			domain.MetricPerformance, domain.MetricScore, c.Submission.Metric)
	}
	if c.Submission.FreshnessWindow <= 0 {
		return fmt.Errorf("submission.freshness_window must be positive")
	}
	if c.Beatmap.CacheCapacity <= 0 || c.Beatmap.CacheTTL <= 0 {
		return fmt.Errorf("beatmap cache capacity and ttl must be positive")
	}
	return nil
}
