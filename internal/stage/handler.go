package stage

import (
	"context"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
)

// Handler describes the contract the pipeline controller needs from each stage.
type Handler interface {
	// Name identifies the stage in the ledger and logs.
	Name() ledger.Stage
	// Prepare performs stage-level setup before any item runs.
	Prepare(ctx context.Context) error
	// Execute processes one item and reports its settled outcome. An error
	// return records the item as failed without touching the outcome.
	Execute(ctx context.Context, item *ledger.Item) (Outcome, error)
}

// Outcome is the settled result of processing one item.
type Outcome struct {
	Status ledger.Status
	Detail string
}

// Success marks an item as having produced its artifact.
func Success(detail string) Outcome {
	return Outcome{Status: ledger.StatusSuccess, Detail: detail}
}

// Skipped marks an item as excluded by policy.
func Skipped(detail string) Outcome {
	return Outcome{Status: ledger.StatusSkipped, Detail: detail}
}

// Rejected marks an item as declined by the quality gate.
func Rejected(detail string) Outcome {
	return Outcome{Status: ledger.StatusRejected, Detail: detail}
}

// NoEvent marks an item as analyzed with nothing reportable found.
func NoEvent(detail string) Outcome {
	return Outcome{Status: ledger.StatusNoEvent, Detail: detail}
}
