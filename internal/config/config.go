// Package config defines graphboard configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and the environment on top of the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"strings"
	"time"
)

// Store backends.
const (
	StoreFile = "file"
	StoreGCS  = "gcs"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// LeaderboardPath is the persisted leaderboard document for the file store.
	LeaderboardPath string `koanf:"leaderboard_path" validate:"required"`

	// ScoresPath is the score feed read by update ("-" reads stdin).
	ScoresPath string `koanf:"scores_path" validate:"required"`

	// HTMLPath is where the rendered leaderboard page is written.
	HTMLPath string `koanf:"html_path"`

	// ResultsDir holds evaluator output files (<team>_output.txt).
	ResultsDir string `koanf:"results_dir"`

	// SubmissionsDir holds encrypted submissions and metadata.json.
	SubmissionsDir string `koanf:"submissions_dir" validate:"required"`

	// GapTolerance is the allowed |gap - |c-o|| before a gap is recomputed.
	GapTolerance float64 `koanf:"gap_tolerance" validate:"gt=0,lt=1"`

	// Store selects the persistence backend.
	Store     string `koanf:"store" validate:"oneof=file gcs"`
	GCSBucket string `koanf:"gcs_bucket" validate:"required_if=Store gcs"`
	GCSObject string `koanf:"gcs_object"`

	// Kafka feed. KafkaBrokers is a comma separated host:port list.
	KafkaBrokers         string `koanf:"kafka_brokers"`
	KafkaTopic           string `koanf:"kafka_topic"`
	KafkaGroupID         string `koanf:"kafka_group_id"`
	KafkaIdleTimeoutMS   int    `koanf:"kafka_idle_timeout_ms" validate:"gte=100"`
	KafkaMaxMessageBytes int    `koanf:"kafka_max_message_bytes" validate:"gte=1024"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gte=1"`

	// RateLimitRPS and RateLimitBurst bound the HTTP read surface. Zero RPS disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=1"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"required"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// PushgatewayURL receives batch metrics when non-empty.
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`

	// Names of the environment variables read by the gatekeeper.
	KeyEnv    string `koanf:"key_env" validate:"required"`
	ActorEnv  string `koanf:"actor_env" validate:"required"`
	OutputEnv string `koanf:"output_env" validate:"required"`

	// Title is shown on the rendered page.
	Title string `koanf:"title"`

	// Trace enables OpenTelemetry spans exported to stderr.
	Trace bool `koanf:"trace"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		LeaderboardPath:      "leaderboard.json",
		ScoresPath:           "results/scores.txt",
		HTMLPath:             "leaderboard.html",
		ResultsDir:           "results",
		SubmissionsDir:       "submissions",
		GapTolerance:         1e-6,
		Store:                StoreFile,
		GCSObject:            "leaderboard.json",
		KafkaTopic:           "graphboard.scores",
		KafkaGroupID:         "graphboard-update",
		KafkaIdleTimeoutMS:   2000,
		KafkaMaxMessageBytes: 1 << 20,
		Addr:                 ":9080",
		MaxLeaderboardLimit:  100,
		RateLimitRPS:         50,
		RateLimitBurst:       100,
		MetricsNamespace:     "graphboard",
		MetricsSubsystem:     "leaderboard",
		KeyEnv:               "SUBMISSION_KEY",
		ActorEnv:             "GITHUB_ACTOR",
		OutputEnv:            "GITHUB_OUTPUT",
		Title:                "Graph Classification Challenge",
	}
}

// Brokers splits KafkaBrokers into trimmed, non-empty addresses.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// KafkaIdleTimeout returns the idle drain timeout as a duration.
func (c *Config) KafkaIdleTimeout() time.Duration {
	return time.Duration(c.KafkaIdleTimeoutMS) * time.Millisecond
}
