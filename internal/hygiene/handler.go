package hygiene

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/download"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
)

// DurationProber measures media length when the metadata sidecar lacks it.
// Satisfied by *ffmpeg.Service.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Handler enforces the dataset hygiene policy: videos over the configured
// duration cap are removed along with their audio, and the item settles as
// skipped so no later stage spends collaborator budget on it.
type Handler struct {
	cfg    *config.Config
	prober DurationProber
	logger *slog.Logger
}

// NewHandler wires the hygiene stage.
func NewHandler(cfg *config.Config, prober DurationProber, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "hygiene"),
	}
}

func (h *Handler) Name() ledger.Stage { return ledger.StageClean }

func (h *Handler) Prepare(context.Context) error { return nil }

func (h *Handler) Execute(ctx context.Context, item *ledger.Item) (stage.Outcome, error) {
	maxSeconds := float64(h.cfg.Download.MaxDurationSeconds)
	if maxSeconds <= 0 {
		return stage.Success("no duration cap configured"), nil
	}

	duration, err := h.duration(ctx, item.Key)
	if err != nil {
		return stage.Outcome{}, err
	}

	if duration <= maxSeconds {
		return stage.Success(fmt.Sprintf("%.0fs within %.0fs cap", duration, maxSeconds)), nil
	}

	// Over the cap: reclaim the disk before settling.
	for _, path := range []string{
		artifacts.VideoPath(h.cfg, item.Key),
		artifacts.AudioPath(h.cfg, item.Key),
	} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return stage.Outcome{}, fmt.Errorf("remove oversized artifact %s: %w", path, err)
		}
	}
	h.logger.Info("oversized video removed",
		logging.String(logging.FieldItemKey, item.Key),
		logging.Float64("duration_seconds", duration),
		logging.Float64("cap_seconds", maxSeconds))

	return stage.Skipped(fmt.Sprintf("duration %.0fs exceeds %.0fs cap", duration, maxSeconds)), nil
}

func (h *Handler) duration(ctx context.Context, key string) (float64, error) {
	meta, err := download.ReadMetadata(artifacts.MetadataPath(h.cfg, key))
	if err == nil && meta.DurationSeconds > 0 {
		return meta.DurationSeconds, nil
	}

	videoPath := artifacts.VideoPath(h.cfg, key)
	if _, statErr := os.Stat(videoPath); statErr != nil {
		return 0, services.Wrap(services.ErrPrerequisite, "clean", "probe", "video artifact missing", statErr)
	}
	duration, probeErr := h.prober.ProbeDuration(ctx, videoPath)
	if probeErr != nil {
		return 0, services.Wrap(services.ErrCollaborator, "clean", "probe", "measure video duration", probeErr)
	}
	return duration, nil
}
