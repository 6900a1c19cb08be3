package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the per-stage artifact directories and the links file.
type Paths struct {
	VideosDir     string `toml:"videos_dir"`
	AudioDir      string `toml:"audio_dir"`
	TranscriptDir string `toml:"transcript_dir"`
	RefinedDir    string `toml:"refined_dir"`
	VLMDir        string `toml:"vlm_dir"`
	AdverseDir    string `toml:"adverse_dir"`
	LogDir        string `toml:"log_dir"`
	LinksFile     string `toml:"links_file"`
}

// Download contains settings for video retrieval and the hygiene filter.
type Download struct {
	MaxDurationSeconds int    `toml:"max_duration_seconds"`
	CookiesFile        string `toml:"cookies_file"`
	Format             string `toml:"format"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// Whisper contains speech-to-text collaborator tuning. The fields are
// opaque to the pipeline core and passed straight to the binary.
type Whisper struct {
	ModelSize string `toml:"model_size"`
	Device    string `toml:"device"`
	Binary    string `toml:"binary"`
}

// Refiner contains the text-correction collaborator settings.
type Refiner struct {
	Model            string `toml:"model"`
	BaseURL          string `toml:"base_url"`
	APIKey           string `toml:"api_key"`
	CallDelaySeconds int    `toml:"api_call_delay_seconds"`
	MaxFilesPerRun   int    `toml:"max_files_per_run"`
}

// VLM contains the gated annotation stage settings.
type VLM struct {
	GatekeeperModel string `toml:"gatekeeper_model"`
	GeneratorModel  string `toml:"generator_model"`
	AggregateFile   string `toml:"aggregate_file"`
	LogFile         string `toml:"log_file"`
	APIKey          string `toml:"api_key"`
}

// AdverseEvent contains the safety-detection stage settings.
type AdverseEvent struct {
	Model         string `toml:"model"`
	AggregateFile string `toml:"aggregate_file"`
	LogFile       string `toml:"log_file"`
}

// Workflow contains timing bounds applied to collaborator calls.
type Workflow struct {
	CollaboratorTimeoutSeconds int `toml:"collaborator_timeout_seconds"`
	DownloadTimeoutSeconds     int `toml:"download_timeout_seconds"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the pipeline.
//
// Sections by subsystem:
//   - Paths: per-stage artifact directories and the input links file
//   - Download: yt-dlp retrieval settings and the hygiene duration cap
//   - Whisper: speech-to-text collaborator tuning (opaque to the core)
//   - Refiner: Cerebras transcript correction settings
//   - VLM: gated annotation models and output files
//   - AdverseEvent: safety-detection model and output files
//   - Workflow: collaborator call timeouts
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Download     Download     `toml:"download"`
	Whisper      Whisper      `toml:"whisper"`
	Refiner      Refiner      `toml:"refiner"`
	VLM          VLM          `toml:"vlm"`
	AdverseEvent AdverseEvent `toml:"adverse_event"`
	Workflow     Workflow     `toml:"workflow"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vidpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the artifact directories required for a run.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.VideosDir,
		c.Paths.AudioDir,
		c.Paths.TranscriptDir,
		c.Paths.RefinedDir,
		filepath.Join(c.Paths.RefinedDir, "full_responses"),
		c.Paths.VLMDir,
		c.Paths.AdverseDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration checks.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// YtdlpBinary returns the yt-dlp executable name.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
