package adverse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/annotate"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/csvlog"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/report"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/gemini"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
)

// Event is one detected complication with its timeline context.
type Event struct {
	EventName      string `json:"event_name"`
	TimestampStart string `json:"timestamp_start"`
	TimestampEnd   string `json:"timestamp_end"`
	Reason         string `json:"reason"`
}

// Entry is the per-item detection record. It is only persisted when at least
// one event was found; clean items leave nothing but a ledger record and a
// log row.
type Entry struct {
	VideoID          string  `json:"video_id"`
	OriginalFilename string  `json:"original_filename"`
	Status           string  `json:"status"`
	VideoURL         string  `json:"video_url"`
	VideoTitle       string  `json:"video_title"`
	DownloadDate     string  `json:"download_date"`
	AdverseEvents    []Event `json:"adverse_events"`
}

type detectionPayload struct {
	AdverseEvents []Event `json:"adverse_events"`
}

// Handler implements the adverse_event stage: a safety analyst model scans
// the annotated step timeline for complications from a closed taxonomy.
type Handler struct {
	cfg       *config.Config
	generator gemini.Generator
	logger    *slog.Logger
	log       *csvlog.Log
}

// NewHandler wires the detection stage.
func NewHandler(cfg *config.Config, generator gemini.Generator, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "adverse_event"),
		log: csvlog.New(artifacts.AdverseLogPath(cfg),
			"video_id", "status", "event_count", "timestamp"),
	}
}

func (h *Handler) Name() ledger.Stage { return ledger.StageAdverseEvent }

func (h *Handler) Prepare(context.Context) error {
	return h.cfg.EnsureDirectories()
}

func (h *Handler) Execute(ctx context.Context, item *ledger.Item) (stage.Outcome, error) {
	source, err := annotate.ReadEntry(artifacts.AnnotationPath(h.cfg, item.Key))
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrPrerequisite, "adverse_event", "input", "annotation record missing", err)
	}
	steps, err := source.Steps()
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrPrerequisite, "adverse_event", "input", "annotation payload unreadable", err)
	}

	timeline := FormatTimeline(steps)
	if timeline == "" {
		return stage.Rejected("no visual steps to analyze"), nil
	}

	events, err := h.detect(ctx, timeline)
	if err != nil {
		return stage.Outcome{}, err
	}

	if len(events) == 0 {
		if err := h.appendLog(item.Key, "NO_EVENT", 0); err != nil {
			return stage.Outcome{}, err
		}
		return stage.NoEvent("no complications found"), nil
	}

	entry := Entry{
		VideoID:          source.VideoID,
		OriginalFilename: source.OriginalFilename,
		Status:           "DETECTED",
		VideoURL:         source.VideoURL,
		VideoTitle:       source.VideoTitle,
		DownloadDate:     source.DownloadDate,
		AdverseEvents:    events,
	}
	if err := writeEntry(artifacts.AdverseEventPath(h.cfg, item.Key), entry); err != nil {
		return stage.Outcome{}, err
	}
	if err := report.RewriteAggregate(h.cfg.Paths.AdverseDir, artifacts.AdverseAggregatePath(h.cfg)); err != nil {
		return stage.Outcome{}, err
	}
	if err := h.appendLog(item.Key, "DETECTED", len(events)); err != nil {
		return stage.Outcome{}, err
	}

	h.logger.Info("adverse events detected",
		logging.String(logging.FieldItemKey, item.Key),
		logging.Int("events", len(events)))
	return stage.Success(fmt.Sprintf("%d events", len(events))), nil
}

func (h *Handler) detect(ctx context.Context, timeline string) ([]Event, error) {
	raw, err := h.generator.GenerateJSON(ctx, h.cfg.AdverseEvent.Model,
		genai.Text(safetyAnalystPrompt),
		genai.Text("\nAnalyze this surgery:\n"+timeline))
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "adverse_event", "detect", "safety analysis", err)
	}
	var payload detectionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, services.Wrap(services.ErrSchemaViolation, "adverse_event", "decode", "detection response", err)
	}
	events := payload.AdverseEvents
	for i := range events {
		canonical, err := CanonicalEvent(events[i].EventName)
		if err != nil {
			return nil, err
		}
		events[i].EventName = canonical
	}
	return events, nil
}

func (h *Handler) appendLog(key, status string, count int) error {
	return h.log.Append(
		key,
		status,
		strconv.Itoa(count),
		time.Now().UTC().Format("2006-01-02 15:04:05"),
	)
}

func writeEntry(path string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal detection entry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write detection entry: %w", err)
	}
	return nil
}
