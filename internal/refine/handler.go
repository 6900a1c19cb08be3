package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/cerebras"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/whisper"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/transcribe"
)

// Editor is the chat completion surface the handler needs. Satisfied by
// *cerebras.Client.
type Editor interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Handler corrects raw transcripts with a language model while preserving
// segment timing, producing the readable transcript the annotation stages
// consume.
type Handler struct {
	cfg      *config.Config
	editor   Editor
	logger   *slog.Logger
	lastCall time.Time
}

// NewHandler wires the refinement stage.
func NewHandler(cfg *config.Config, editor Editor, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		editor: editor,
		logger: logging.NewComponentLogger(logger, "refine"),
	}
}

func (h *Handler) Name() ledger.Stage { return ledger.StageRefine }

func (h *Handler) Prepare(context.Context) error {
	return h.cfg.EnsureDirectories()
}

func (h *Handler) Execute(ctx context.Context, item *ledger.Item) (stage.Outcome, error) {
	transcriptPath := artifacts.TranscriptPath(h.cfg, item.Key)
	original, err := transcribe.ReadSegments(transcriptPath)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrPrerequisite, "refine", "input", "transcript artifact missing", err)
	}
	if len(original) == 0 {
		return stage.Skipped("transcript has no segments"), nil
	}

	if err := h.throttle(ctx); err != nil {
		return stage.Outcome{}, err
	}

	payload, err := json.MarshalIndent(original, "", "    ")
	if err != nil {
		return stage.Outcome{}, fmt.Errorf("marshal transcript payload: %w", err)
	}

	raw, err := h.editor.Complete(ctx, EditorSystemPrompt, string(payload))
	h.lastCall = time.Now()
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrCollaborator, "refine", "complete", "transcript correction", err)
	}

	// The raw response is preserved verbatim for auditing before any parsing
	// can fail.
	fullPath := artifacts.FullResponsePath(h.cfg, item.Key)
	if err := os.WriteFile(fullPath, []byte(raw), 0o644); err != nil {
		return stage.Outcome{}, fmt.Errorf("write full response: %w", err)
	}

	refined, err := parseRefined(raw)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrSchemaViolation, "refine", "parse", "refiner returned malformed segments", err)
	}
	if err := VerifyBoundaries(original, refined); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrSchemaViolation, "refine", "verify", "segment boundaries not preserved", err)
	}

	formatted := FormatSegments(refined)
	if err := os.WriteFile(artifacts.RefinedPath(h.cfg, item.Key), []byte(formatted+"\n"), 0o644); err != nil {
		return stage.Outcome{}, fmt.Errorf("write refined transcript: %w", err)
	}

	words := WordCount(refined)
	h.logger.Info("transcript refined",
		logging.String(logging.FieldItemKey, item.Key),
		logging.Int("segments", len(refined)),
		logging.Int("words", words))
	return stage.Success(fmt.Sprintf("%d segments, %d words", len(refined), words)), nil
}

// throttle spaces collaborator calls by the configured delay.
func (h *Handler) throttle(ctx context.Context) error {
	delay := time.Duration(h.cfg.Refiner.CallDelaySeconds) * time.Second
	if delay <= 0 || h.lastCall.IsZero() {
		return nil
	}
	wait := delay - time.Since(h.lastCall)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func parseRefined(raw string) ([]whisper.Segment, error) {
	extracted, err := cerebras.ExtractJSONArray(raw)
	if err != nil {
		return nil, err
	}
	var segments []whisper.Segment
	if err := json.Unmarshal([]byte(extracted), &segments); err != nil {
		return nil, fmt.Errorf("decode refined segments: %w", err)
	}
	return segments, nil
}
