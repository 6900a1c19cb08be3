package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
)

// Options controls stage execution and ledger persistence behavior.
type Options struct {
	Logger      *slog.Logger
	Store       *ledger.Store
	Handler     Handler
	RunID       string
	ItemTimeout time.Duration
	// MaxItems caps how many eligible items run this pass; zero means all.
	MaxItems int
}

// Summary reports what one stage pass did.
type Summary struct {
	Stage     ledger.Stage
	Processed int
	// Held counts eligible items left untouched because their prerequisite
	// stage has not succeeded.
	Held     int
	ByStatus map[ledger.Status]int
}

// Run executes a stage over every eligible item. Items whose latest status
// is terminal are never revisited; items whose prerequisite stage has not
// succeeded are left pending for a later run. One item failing never stops
// the rest: the failure is recorded and the pass continues.
func Run(ctx context.Context, opts Options) (Summary, error) {
	summary := Summary{ByStatus: make(map[ledger.Status]int)}
	if opts.Handler == nil {
		return summary, errors.New("stage handler is required")
	}
	if opts.Store == nil {
		return summary, errors.New("ledger store is required")
	}
	stageName := opts.Handler.Name()
	summary.Stage = stageName

	stageCtx := logging.WithStage(ctx, string(stageName))
	if opts.RunID != "" {
		stageCtx = logging.WithRunID(stageCtx, opts.RunID)
	}
	logger := logging.WithContext(stageCtx, opts.Logger)

	if err := opts.Handler.Prepare(stageCtx); err != nil {
		return summary, fmt.Errorf("prepare %s: %w", stageName, err)
	}

	eligible, err := opts.Store.EligibleItems(stageCtx, stageName)
	if err != nil {
		return summary, fmt.Errorf("eligible items for %s: %w", stageName, err)
	}

	ready := make([]*ledger.Item, 0, len(eligible))
	prerequisite := ledger.Prerequisite(stageName)
	for _, item := range eligible {
		if prerequisite != "" {
			status, err := opts.Store.StatusOf(stageCtx, item.Key, prerequisite)
			if err != nil {
				return summary, fmt.Errorf("prerequisite status for %s: %w", item.Key, err)
			}
			if status != ledger.StatusSuccess {
				summary.Held++
				logger.Debug("prerequisite not met",
					logging.String(logging.FieldItemKey, item.Key),
					logging.String("prerequisite", string(prerequisite)),
					logging.String("prerequisite_status", string(status)))
				continue
			}
		}
		ready = append(ready, item)
	}
	if opts.MaxItems > 0 && len(ready) > opts.MaxItems {
		ready = ready[:opts.MaxItems]
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("eligible", len(ready)))

	for _, item := range ready {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome := runItem(stageCtx, opts, logger, item)
		summary.Processed++
		summary.ByStatus[outcome]++
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.ByStatus[ledger.StatusFailed]))
	return summary, nil
}

func runItem(ctx context.Context, opts Options, logger *slog.Logger, item *ledger.Item) ledger.Status {
	itemCtx := logging.WithItemKey(ctx, item.Key)
	itemLogger := logging.WithContext(itemCtx, logger)
	if opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(itemCtx, opts.ItemTimeout)
		defer cancel()
	}

	outcome, err := opts.Handler.Execute(itemCtx, item)
	if err != nil {
		// Deadline expiry records under the timeout sentinel so retries and
		// genuine collaborator faults are distinguishable in the ledger.
		err = services.Classify(err)
		itemLogger.Error("item failed",
			logging.String(logging.FieldEventType, "item_failure"),
			logging.Error(err))
		if _, recordErr := opts.Store.RecordOutcome(ctx, item.Key, opts.Handler.Name(), ledger.StatusFailed, err.Error(), opts.RunID); recordErr != nil {
			itemLogger.Error("persist item failure", logging.Error(recordErr))
		}
		return ledger.StatusFailed
	}

	if outcome.Status == "" || outcome.Status == ledger.StatusPending {
		outcome = Success(outcome.Detail)
	}
	itemLogger.Info("item settled",
		logging.String(logging.FieldEventType, "item_outcome"),
		logging.String("status", string(outcome.Status)),
		logging.String("detail", outcome.Detail))
	if _, err := opts.Store.RecordOutcome(ctx, item.Key, opts.Handler.Name(), outcome.Status, outcome.Detail, opts.RunID); err != nil {
		itemLogger.Error("persist item outcome", logging.Error(err))
		return ledger.StatusFailed
	}
	return outcome.Status
}
