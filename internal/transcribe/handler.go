package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/whisper"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
)

// Transcriber is the speech-to-text surface the handler needs. Satisfied by
// *whisper.Service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir string) ([]whisper.Segment, error)
}

// Handler turns extracted audio into normalized timed transcripts.
type Handler struct {
	cfg         *config.Config
	transcriber Transcriber
	logger      *slog.Logger
}

// NewHandler wires the transcription stage.
func NewHandler(cfg *config.Config, transcriber Transcriber, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:         cfg,
		transcriber: transcriber,
		logger:      logging.NewComponentLogger(logger, "transcribe"),
	}
}

func (h *Handler) Name() ledger.Stage { return ledger.StageTranscribe }

func (h *Handler) Prepare(context.Context) error {
	return os.MkdirAll(artifacts.RawTranscriptDir(h.cfg), 0o755)
}

// Execute transcribes one audio file. The raw collaborator output lands in a
// raw/ subdirectory; the normalized segment array becomes the stage artifact.
// A transcript whose segment starts go backwards is corrupt and fails the
// item rather than poisoning downstream stages.
func (h *Handler) Execute(ctx context.Context, item *ledger.Item) (stage.Outcome, error) {
	audioPath := artifacts.AudioPath(h.cfg, item.Key)
	if _, err := os.Stat(audioPath); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrPrerequisite, "transcribe", "input", "audio artifact missing", err)
	}

	transcriptPath := artifacts.TranscriptPath(h.cfg, item.Key)
	if _, err := os.Stat(transcriptPath); err == nil {
		return stage.Success("transcript already present"), nil
	}

	segments, err := h.transcriber.Transcribe(ctx, audioPath, artifacts.RawTranscriptDir(h.cfg))
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrCollaborator, "transcribe", "transcribe", "speech-to-text", err)
	}
	if err := whisper.ValidateOrder(segments); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrSchemaViolation, "transcribe", "validate", "segment order violation", err)
	}

	if err := WriteSegments(transcriptPath, segments); err != nil {
		return stage.Outcome{}, err
	}
	h.logger.Info("transcript written",
		logging.String(logging.FieldItemKey, item.Key),
		logging.Int("segments", len(segments)))
	return stage.Success(fmt.Sprintf("%d segments", len(segments))), nil
}

// WriteSegments persists the normalized segment array.
func WriteSegments(path string, segments []whisper.Segment) error {
	if segments == nil {
		segments = []whisper.Segment{}
	}
	data, err := json.MarshalIndent(segments, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// ReadSegments loads a normalized transcript artifact.
func ReadSegments(path string) ([]whisper.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var segments []whisper.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return segments, nil
}
