package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/ffmpeg"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/ytdlp"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
)

// Fetcher is the video retrieval surface the handler needs. Satisfied by
// *ytdlp.Client.
type Fetcher interface {
	Probe(ctx context.Context, url string) (ytdlp.Metadata, error)
	Download(ctx context.Context, url, destDir, format string) (string, error)
}

// AudioExtractor converts a downloaded video into transcription input.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, audioDir string) (string, error)
}

var (
	_ Fetcher        = (*ytdlp.Client)(nil)
	_ AudioExtractor = (*ffmpeg.Service)(nil)
)

// Handler retrieves source videos and extracts their audio tracks.
type Handler struct {
	cfg       *config.Config
	fetcher   Fetcher
	extractor AudioExtractor
	logger    *slog.Logger
}

// NewHandler wires the download stage against its collaborators.
func NewHandler(cfg *config.Config, fetcher Fetcher, extractor AudioExtractor, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "download"),
	}
}

func (h *Handler) Name() ledger.Stage { return ledger.StageDownload }

func (h *Handler) Prepare(context.Context) error {
	return h.cfg.EnsureDirectories()
}

// Execute downloads one video and extracts its audio. An existing video and
// audio pair is re-settled as success without touching the network, so a
// ledger rebuild over a populated tree converges instead of re-downloading.
func (h *Handler) Execute(ctx context.Context, item *ledger.Item) (stage.Outcome, error) {
	videoPath := artifacts.VideoPath(h.cfg, item.Key)
	audioPath := artifacts.AudioPath(h.cfg, item.Key)
	metaPath := artifacts.MetadataPath(h.cfg, item.Key)

	if fileExists(videoPath) && fileExists(audioPath) && fileExists(metaPath) {
		return stage.Success("artifacts already present"), nil
	}

	if h.cfg.Workflow.DownloadTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(h.cfg.Workflow.DownloadTimeoutSeconds)*time.Second)
		defer cancel()
	}

	meta, err := h.fetcher.Probe(ctx, item.URL)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrCollaborator, "download", "probe", "probe source metadata", err)
	}

	if !fileExists(videoPath) {
		downloaded, err := h.fetcher.Download(ctx, item.URL, h.cfg.Paths.VideosDir, h.cfg.Download.Format)
		if err != nil {
			return stage.Outcome{}, services.Wrap(services.ErrCollaborator, "download", "download", "retrieve video", err)
		}
		if downloaded != videoPath {
			if err := os.Rename(downloaded, videoPath); err != nil {
				return stage.Outcome{}, fmt.Errorf("place video at %s: %w", videoPath, err)
			}
		}
		h.logger.Info("video downloaded",
			logging.String(logging.FieldItemKey, item.Key),
			logging.String("title", meta.Title))
	}

	if !fileExists(audioPath) {
		extracted, err := h.extractor.ExtractAudio(ctx, videoPath, h.cfg.Paths.AudioDir)
		if err != nil {
			return stage.Outcome{}, services.Wrap(services.ErrCollaborator, "download", "extract_audio", "extract audio track", err)
		}
		if extracted != audioPath {
			if err := os.Rename(extracted, audioPath); err != nil {
				return stage.Outcome{}, fmt.Errorf("place audio at %s: %w", audioPath, err)
			}
		}
	}

	sidecar := Metadata{
		Title:           meta.Title,
		Channel:         meta.Channel,
		URL:             item.URL,
		VideoFile:       filepath.Base(videoPath),
		AudioFile:       filepath.Base(audioPath),
		DownloadedAt:    time.Now().UTC().Format("2006-01-02 15:04:05"),
		DurationSeconds: meta.DurationSeconds,
		Resolution:      meta.Resolution(),
	}
	if err := WriteMetadata(metaPath, sidecar); err != nil {
		return stage.Outcome{}, err
	}

	return stage.Success(fmt.Sprintf("%.0fs at %s", meta.DurationSeconds, sidecar.Resolution)), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
