package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.VideosDir = filepath.Join(base, "videos")
	cfg.Paths.AudioDir = filepath.Join(base, "audio")
	cfg.Paths.TranscriptDir = filepath.Join(base, "transcripts")
	cfg.Paths.RefinedDir = filepath.Join(base, "refined")
	cfg.Paths.VLMDir = filepath.Join(base, "vlm")
	cfg.Paths.AdverseDir = filepath.Join(base, "adverse")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LinksFile = filepath.Join(base, "links.txt")
	cfg.Refiner.APIKey = "test"
	cfg.VLM.APIKey = "test"
	cfg.Refiner.CallDelaySeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRefinerKey sets the refiner API key on the test config.
func WithRefinerKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Refiner.APIKey = key
	}
}

// WithMaxDuration sets the hygiene duration cap in seconds.
func WithMaxDuration(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Download.MaxDurationSeconds = seconds
	}
}
