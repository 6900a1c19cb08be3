package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultModel is used when no model size is configured.
const DefaultModel = "large"

// Config contains transcription tuning passed through to the binary.
type Config struct {
	Model  string
	Device string
	Binary string
}

// Runner executes the external binary and returns its combined stdout.
// Overridable for tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service provides Whisper transcription capabilities.
type Service struct {
	cfg    Config
	runner Runner
}

// NewService creates a Whisper service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "whisper"
	}
	return &Service{cfg: cfg, runner: runCommand}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) {
	if runner != nil {
		s.runner = runner
	}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Segment is one timed transcript span. Times are seconds from stream start,
// rounded to one decimal place.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// whisperPayload is the JSON structure the whisper CLI writes next to the audio.
type whisperPayload struct {
	Segments []Segment `json:"segments"`
}

// Transcribe runs the binary over a WAV file and returns its segments in
// stream order. outputDir receives the raw whisper JSON output.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir string) ([]Segment, error) {
	if audioPath == "" {
		return nil, fmt.Errorf("transcribe: audio path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if _, err := s.runner(ctx, s.cfg.Binary, s.buildArgs(audioPath, outputDir)...); err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segments, err := LoadSegments(filepath.Join(outputDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return segments, nil
}

func (s *Service) buildArgs(audioPath, outputDir string) []string {
	args := []string{
		audioPath,
		"--model", s.Model(),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if device := strings.TrimSpace(s.cfg.Device); device != "" {
		args = append(args, "--device", device)
	}
	return args
}

// LoadSegments loads segments from a whisper JSON file, trimming text and
// rounding boundaries to a tenth of a second.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisper json: %w", err)
	}
	segments := make([]Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, Segment{
			Start: roundTenth(seg.Start),
			End:   roundTenth(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segments, nil
}

// ValidateOrder confirms segment start times are monotonic non-decreasing.
// A violation means the speech-to-text collaborator emitted a corrupt stream.
func ValidateOrder(segments []Segment) error {
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].Start {
			return fmt.Errorf("segment %d starts at %.1f before previous start %.1f",
				i, segments[i].Start, segments[i-1].Start)
		}
	}
	return nil
}

func roundTenth(value float64) float64 {
	return math.Round(value*10) / 10
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
