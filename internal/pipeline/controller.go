package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/adverse"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/annotate"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/download"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/hygiene"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/refine"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/registry"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/report"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/cerebras"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/ffmpeg"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/gemini"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/whisper"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/ytdlp"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/transcribe"
)

// SelectionAll runs every stage in order.
const SelectionAll = "all"

// Controller owns one pipeline invocation: it serializes runs through a file
// lock, registers new links, and drives the selected stages over the ledger.
type Controller struct {
	cfg       *config.Config
	logger    *slog.Logger
	inspector registry.Inspector
	generator gemini.Generator
	overrides map[ledger.Stage]stage.Handler
}

// Option customizes controller wiring, mainly so tests can substitute
// collaborators without touching the network.
type Option func(*Controller)

// WithInspector replaces the link resolver used during ingestion.
func WithInspector(inspector registry.Inspector) Option {
	return func(c *Controller) {
		if inspector != nil {
			c.inspector = inspector
		}
	}
}

// WithGenerator replaces the multimodal generation client shared by the vlm
// and adverse_event stages.
func WithGenerator(generator gemini.Generator) Option {
	return func(c *Controller) {
		if generator != nil {
			c.generator = generator
		}
	}
}

// WithHandler replaces the handler for the stage it names.
func WithHandler(handler stage.Handler) Option {
	return func(c *Controller) {
		if handler != nil {
			c.overrides[handler.Name()] = handler
		}
	}
}

// New builds a controller over the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Controller{
		cfg:       cfg,
		logger:    logger,
		overrides: make(map[ledger.Stage]stage.Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report summarizes one pipeline run.
type Report struct {
	RunID       string
	Ingest      *registry.Result
	Stages      []stage.Summary
	SummaryRows int
}

// Select resolves a stage selection string into the ordered stages to run.
func Select(value string) ([]ledger.Stage, error) {
	if strings.EqualFold(strings.TrimSpace(value), SelectionAll) {
		return ledger.StageOrder, nil
	}
	parsed, err := ledger.ParseStage(value)
	if err != nil {
		return nil, err
	}
	return []ledger.Stage{parsed}, nil
}

// Run executes the selected stages over every eligible item. Concurrent runs
// against the same data directory are refused via a lock file so two
// processes never interleave collaborator calls or ledger writes.
func (c *Controller) Run(ctx context.Context, selection string) (*Report, error) {
	stages, err := Select(selection)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "select", "stage selection", err)
	}

	if err := c.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(c.cfg.Paths.LogDir, "pipeline.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock", "another run holds the pipeline lock", nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	store, err := ledger.Open(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	runReport := &Report{RunID: uuid.NewString()}
	runCtx := logging.WithRunID(ctx, runReport.RunID)
	logger := logging.WithContext(runCtx, c.logger)
	logger.Info("pipeline run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("selection", selection),
		logging.String("ledger", store.Path()))

	if includesStage(stages, ledger.StageDownload) {
		result, err := registry.Ingest(runCtx, store, c.linkInspector(), c.cfg.Paths.LinksFile, runReport.RunID, logger)
		if err != nil {
			return nil, fmt.Errorf("ingest links: %w", err)
		}
		runReport.Ingest = &result
	}

	for _, name := range stages {
		summary, err := c.runStage(runCtx, store, name, runReport.RunID)
		if err != nil {
			return runReport, err
		}
		runReport.Stages = append(runReport.Stages, summary)
		// A single named stage run out of order must fail loudly instead of
		// completing an empty pass.
		if len(stages) == 1 && summary.Processed == 0 && summary.Held > 0 {
			return runReport, services.Wrap(services.ErrPrerequisite, string(name), "gate",
				fmt.Sprintf("missing prerequisite artifacts: %s has not succeeded for any eligible item", ledger.Prerequisite(name)), nil)
		}
	}

	if includesStage(stages, ledger.StageSummarize) {
		rows, err := c.rebuildSummary(runCtx, store)
		if err != nil {
			return runReport, err
		}
		runReport.SummaryRows = rows
	}

	logger.Info("pipeline run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("stages", len(runReport.Stages)))
	return runReport, nil
}

func (c *Controller) runStage(ctx context.Context, store *ledger.Store, name ledger.Stage, runID string) (stage.Summary, error) {
	handler, err := c.handlerFor(ctx, name)
	if err != nil {
		return stage.Summary{}, err
	}
	opts := stage.Options{
		Logger:      c.logger,
		Store:       store,
		Handler:     handler,
		RunID:       runID,
		ItemTimeout: c.itemTimeout(name),
	}
	if name == ledger.StageRefine {
		opts.MaxItems = c.cfg.Refiner.MaxFilesPerRun
	}
	return stage.Run(ctx, opts)
}

// itemTimeout bounds every collaborator-backed stage. The download stage
// enforces its own configured deadline, and summarize is a local projection.
func (c *Controller) itemTimeout(name ledger.Stage) time.Duration {
	switch name {
	case ledger.StageDownload, ledger.StageSummarize:
		return 0
	default:
		return time.Duration(c.cfg.Workflow.CollaboratorTimeoutSeconds) * time.Second
	}
}

func (c *Controller) rebuildSummary(ctx context.Context, store *ledger.Store) (int, error) {
	rows, err := report.Rebuild(ctx, c.cfg, store)
	if err != nil {
		return 0, fmt.Errorf("rebuild dataset summary: %w", err)
	}
	return rows, nil
}

func (c *Controller) handlerFor(ctx context.Context, name ledger.Stage) (stage.Handler, error) {
	if handler, ok := c.overrides[name]; ok {
		return handler, nil
	}
	switch name {
	case ledger.StageDownload:
		return download.NewHandler(c.cfg, c.fetcher(), c.ffmpeg(), c.logger), nil
	case ledger.StageClean:
		return hygiene.NewHandler(c.cfg, c.ffmpeg(), c.logger), nil
	case ledger.StageTranscribe:
		transcriber := whisper.NewService(whisper.Config{
			Model:  c.cfg.Whisper.ModelSize,
			Device: c.cfg.Whisper.Device,
			Binary: c.cfg.Whisper.Binary,
		})
		return transcribe.NewHandler(c.cfg, transcriber, c.logger), nil
	case ledger.StageRefine:
		if c.cfg.Refiner.APIKey == "" {
			return nil, services.Wrap(services.ErrConfiguration, "refine", "setup", "CEREBRAS_API_KEY not set", nil)
		}
		editor := cerebras.NewClient(c.cfg.Refiner.APIKey,
			cerebras.WithBaseURL(c.cfg.Refiner.BaseURL),
			cerebras.WithModel(c.cfg.Refiner.Model))
		return refine.NewHandler(c.cfg, editor, c.logger), nil
	case ledger.StageSummarize:
		return report.NewHandler(c.cfg, c.logger), nil
	case ledger.StageVLM:
		generator, err := c.multimodal(ctx)
		if err != nil {
			return nil, err
		}
		return annotate.NewHandler(c.cfg, generator, c.logger), nil
	case ledger.StageAdverseEvent:
		generator, err := c.multimodal(ctx)
		if err != nil {
			return nil, err
		}
		return adverse.NewHandler(c.cfg, generator, c.logger), nil
	default:
		return nil, fmt.Errorf("no handler for stage %q", name)
	}
}

func (c *Controller) linkInspector() registry.Inspector {
	if c.inspector == nil {
		c.inspector = c.fetcher()
	}
	return c.inspector
}

func (c *Controller) fetcher() *ytdlp.Client {
	opts := []ytdlp.Option{}
	if c.cfg.Download.CookiesFile != "" {
		opts = append(opts, ytdlp.WithCookiesFile(c.cfg.Download.CookiesFile))
	}
	return ytdlp.NewClient(c.cfg.YtdlpBinary(), opts...)
}

func (c *Controller) ffmpeg() *ffmpeg.Service {
	return ffmpeg.NewService(c.cfg.FFmpegBinary(), c.cfg.FFprobeBinary())
}

// multimodal returns the shared generation client, creating it on first use
// so stage selections that never reach Gemini work without a key.
func (c *Controller) multimodal(ctx context.Context) (gemini.Generator, error) {
	if c.generator != nil {
		return c.generator, nil
	}
	if c.cfg.VLM.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "vlm", "setup", "GEMINI_API_KEY not set", nil)
	}
	client, err := gemini.NewClient(ctx, c.cfg.VLM.APIKey)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "vlm", "setup", "create generation client", err)
	}
	c.generator = client
	return client, nil
}

func includesStage(stages []ledger.Stage, target ledger.Stage) bool {
	for _, candidate := range stages {
		if candidate == target {
			return true
		}
	}
	return false
}
