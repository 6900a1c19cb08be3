package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/csvlog"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/download"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/gated"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/report"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/gemini"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
)

// Handler implements the vlm stage: a cheap gatekeeper judges each refined
// transcript, and only accepted items earn a video-grounded generation call.
type Handler struct {
	cfg       *config.Config
	generator gemini.Generator
	logger    *slog.Logger
	log       *csvlog.Log
}

// NewHandler wires the annotation stage.
func NewHandler(cfg *config.Config, generator gemini.Generator, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "vlm"),
		log: csvlog.New(artifacts.AnnotationLogPath(cfg),
			"video_id", "original_filename", "status", "decision", "confidence",
			"reasoning", "video_title", "url", "download_date", "timestamp"),
	}
}

func (h *Handler) Name() ledger.Stage { return ledger.StageVLM }

func (h *Handler) Prepare(context.Context) error {
	return h.cfg.EnsureDirectories()
}

func (h *Handler) Execute(ctx context.Context, item *ledger.Item) (stage.Outcome, error) {
	transcript, err := os.ReadFile(artifacts.RefinedPath(h.cfg, item.Key))
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrPrerequisite, "vlm", "input", "refined transcript missing", err)
	}
	meta, err := download.ReadMetadata(artifacts.MetadataPath(h.cfg, item.Key))
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrPrerequisite, "vlm", "input", "source metadata missing", err)
	}

	result, accepted, err := gated.Run(ctx,
		h.gate(string(transcript)),
		h.generate(item, string(transcript)),
	)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrCollaborator, "vlm", "gated", "gated generation", err)
	}

	if !accepted {
		if err := h.appendLog(item, meta, "REJECTED", result.Decision); err != nil {
			return stage.Outcome{}, err
		}
		h.logger.Info("transcript rejected by gate",
			logging.String(logging.FieldItemKey, item.Key),
			logging.Float64("confidence", result.Decision.Confidence),
			logging.String("reasoning", result.Decision.Reasoning))
		return stage.Rejected(result.Decision.Reasoning), nil
	}

	entry := Entry{
		VideoID:          item.Key,
		OriginalFilename: meta.VideoFile,
		Status:           "SUCCESS",
		VideoURL:         item.URL,
		VideoTitle:       meta.Title,
		DownloadDate:     meta.DownloadedAt,
		TranscriptQualityCheck: QualityCheck{
			Decision:        "YES",
			ConfidenceScore: result.Decision.Confidence,
			Reasoning:       result.Decision.Reasoning,
		},
		VLMAnnotations: result.Payload,
	}
	steps, err := entry.Steps()
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrSchemaViolation, "vlm", "decode", "annotation payload", err)
	}

	if len(steps) == 0 {
		entry.Status = "NO_FINDINGS"
		if err := WriteEntry(artifacts.AnnotationNoFindingsPath(h.cfg, item.Key), entry); err != nil {
			return stage.Outcome{}, err
		}
		if err := h.appendLog(item, meta, "NO_EVENT", result.Decision); err != nil {
			return stage.Outcome{}, err
		}
		h.logger.Info("generation found no steps",
			logging.String(logging.FieldItemKey, item.Key))
		return stage.NoEvent("no steps identified"), nil
	}

	if err := WriteEntry(artifacts.AnnotationPath(h.cfg, item.Key), entry); err != nil {
		return stage.Outcome{}, err
	}
	if err := report.RewriteAggregate(h.cfg.Paths.VLMDir, artifacts.AnnotationAggregatePath(h.cfg)); err != nil {
		return stage.Outcome{}, err
	}
	if err := h.appendLog(item, meta, "ACCEPTED", result.Decision); err != nil {
		return stage.Outcome{}, err
	}

	h.logger.Info("annotation generated",
		logging.String(logging.FieldItemKey, item.Key),
		logging.Int("steps", len(steps)))
	return stage.Success(fmt.Sprintf("%d steps", len(steps))), nil
}

func (h *Handler) gate(transcript string) gated.Gate {
	return func(ctx context.Context) (gated.Decision, error) {
		raw, err := h.generator.GenerateJSON(ctx, h.cfg.VLM.GatekeeperModel,
			genai.Text(renderGatekeeperPrompt(transcript)))
		if err != nil {
			return gated.Decision{}, err
		}
		return gated.ParseDecision(raw)
	}
}

func (h *Handler) generate(item *ledger.Item, transcript string) gated.Generate {
	return func(ctx context.Context) (json.RawMessage, error) {
		raw, err := h.generator.GenerateJSON(ctx, h.cfg.VLM.GeneratorModel,
			gemini.VideoPart(item.URL),
			genai.Text(renderAnalystPrompt(transcript)))
		if err != nil {
			return nil, err
		}
		payload := json.RawMessage(raw)
		// A well-formed empty array is a no-findings outcome, not a
		// contract violation.
		if emptyAnnotations(payload) {
			return payload, nil
		}
		if err := ValidateAnnotations(payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

func (h *Handler) appendLog(item *ledger.Item, meta download.Metadata, status string, decision gated.Decision) error {
	verdict := "NO"
	if decision.Accept {
		verdict = "YES"
	}
	return h.log.Append(
		item.Key,
		meta.VideoFile,
		status,
		verdict,
		fmt.Sprintf("%.2f", decision.Confidence),
		decision.Reasoning,
		meta.Title,
		item.URL,
		meta.DownloadedAt,
		time.Now().UTC().Format("2006-01-02 15:04:05"),
	)
}
