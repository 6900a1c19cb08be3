package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
)

// Handler implements the summarize stage: it settles each refined item into
// the dataset summary projection. The CSV itself is rebuilt whole by the
// controller after the pass.
type Handler struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandler wires the summarize stage.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{cfg: cfg, logger: logging.NewComponentLogger(logger, "summarize")}
}

func (h *Handler) Name() ledger.Stage { return ledger.StageSummarize }

func (h *Handler) Prepare(context.Context) error { return nil }

func (h *Handler) Execute(_ context.Context, item *ledger.Item) (stage.Outcome, error) {
	row, err := BuildRow(h.cfg, item)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrPrerequisite, "summarize", "collect", "summary inputs missing", err)
	}
	h.logger.Info("item summarized",
		logging.String(logging.FieldItemKey, item.Key),
		logging.Int("words", row.WordCount))
	return stage.Success(fmt.Sprintf("%d words over %.0fs", row.WordCount, row.DurationSeconds)), nil
}
