package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Download.MaxDurationSeconds != 1800 {
		t.Fatalf("unexpected default max duration: %d", cfg.Download.MaxDurationSeconds)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected default log format: %q", cfg.Logging.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`videos_dir = "` + filepath.Join(dir, "videos") + `"`,
		"[download]",
		"max_duration_seconds = 900",
		"[refiner]",
		`base_url = "https://api.cerebras.ai/v1/"`,
		"[logging]",
		`format = "JSON"`,
		`level = "DEBUG"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Download.MaxDurationSeconds != 900 {
		t.Fatalf("expected max duration 900, got %d", cfg.Download.MaxDurationSeconds)
	}
	if cfg.Refiner.BaseURL != "https://api.cerebras.ai/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Refiner.BaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadDuration(t *testing.T) {
	cfg := config.Default()
	cfg.Download.MaxDurationSeconds = -5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for negative max duration")
	}
}

func TestValidateRejectsMissingModel(t *testing.T) {
	cfg := config.Default()
	cfg.VLM.GatekeeperModel = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty gatekeeper model")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.VideosDir = filepath.Join(base, "videos")
	cfg.Paths.AudioDir = filepath.Join(base, "audio")
	cfg.Paths.TranscriptDir = filepath.Join(base, "transcripts")
	cfg.Paths.RefinedDir = filepath.Join(base, "refined")
	cfg.Paths.VLMDir = filepath.Join(base, "vlm")
	cfg.Paths.AdverseDir = filepath.Join(base, "adverse")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{
		cfg.Paths.VideosDir,
		cfg.Paths.AudioDir,
		filepath.Join(cfg.Paths.RefinedDir, "full_responses"),
		cfg.Paths.LogDir,
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}
