package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// FFmpegBinary is the default ffmpeg executable name.
	FFmpegBinary = "ffmpeg"
	// FFprobeBinary is the default ffprobe executable name.
	FFprobeBinary = "ffprobe"

	// Whisper expects 16 kHz mono PCM input.
	sampleRate = "16000"
	channels   = "1"
	audioCodec = "pcm_s16le"
)

// Runner executes the external binary and returns its combined stdout.
// Overridable for tests.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service extracts audio tracks and probes media durations.
type Service struct {
	ffmpeg  string
	ffprobe string
	runner  Runner
}

// NewService creates an ffmpeg/ffprobe service.
func NewService(ffmpegBinary, ffprobeBinary string) *Service {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = FFmpegBinary
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = FFprobeBinary
	}
	return &Service{ffmpeg: ffmpegBinary, ffprobe: ffprobeBinary, runner: runCommand}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner Runner) {
	if runner != nil {
		s.runner = runner
	}
}

// ExtractAudio converts a video file into a 16 kHz mono WAV in audioDir and
// returns the output path. The output name mirrors the source base name.
func (s *Service) ExtractAudio(ctx context.Context, videoPath, audioDir string) (string, error) {
	if videoPath == "" {
		return "", fmt.Errorf("extract audio: source path required")
	}
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("extract audio: source: %w", err)
	}
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return "", fmt.Errorf("extract audio: ensure audio dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	dest := filepath.Join(audioDir, base+".wav")

	args := []string{
		"-i", videoPath,
		"-vn",
		"-acodec", audioCodec,
		"-ar", sampleRate,
		"-ac", channels,
		"-y",
		dest,
	}
	if _, err := s.runner(ctx, s.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	return dest, nil
}

// ProbeDuration returns the media duration in seconds.
func (s *Service) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, fmt.Errorf("probe duration: path required")
	}
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	output, err := s.runner(ctx, s.ffprobe, args...)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	raw := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("probe duration: parse %q: %w", raw, err)
	}
	return duration, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
