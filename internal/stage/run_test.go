package stage_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/testsupport"
)

type scriptedHandler struct {
	name     ledger.Stage
	prepared bool
	seen     []string
	execute  func(item *ledger.Item) (stage.Outcome, error)
}

func (h *scriptedHandler) Name() ledger.Stage { return h.name }

func (h *scriptedHandler) Prepare(context.Context) error {
	h.prepared = true
	return nil
}

func (h *scriptedHandler) Execute(_ context.Context, item *ledger.Item) (stage.Outcome, error) {
	h.seen = append(h.seen, item.Key)
	if h.execute != nil {
		return h.execute(item)
	}
	return stage.Success(""), nil
}

func seedItems(t *testing.T, store *ledger.Store, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if _, err := store.SaveItem(context.Background(), &ledger.Item{Key: key, URL: "u"}); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
}

func TestRunSkipsTerminalItems(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	seedItems(t, store, "fresh", "settled", "retry")

	if _, err := store.RecordOutcome(ctx, "settled", ledger.StageDownload, ledger.StatusSuccess, "", "run-0"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := store.RecordOutcome(ctx, "retry", ledger.StageDownload, ledger.StatusFailed, "network", "run-0"); err != nil {
		t.Fatalf("record: %v", err)
	}

	handler := &scriptedHandler{name: ledger.StageDownload}
	summary, err := stage.Run(ctx, stage.Options{Store: store, Handler: handler, RunID: "run-1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !handler.prepared {
		t.Fatal("expected Prepare to be called")
	}
	if summary.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", summary.Processed)
	}
	for _, key := range handler.seen {
		if key == "settled" {
			t.Fatal("terminal item was reprocessed")
		}
	}
}

func TestRunIsolatesItemFailures(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	seedItems(t, store, "bad", "good")

	handler := &scriptedHandler{
		name: ledger.StageDownload,
		execute: func(item *ledger.Item) (stage.Outcome, error) {
			if item.Key == "bad" {
				return stage.Outcome{}, errors.New("collaborator exploded")
			}
			return stage.Success(""), nil
		},
	}
	summary, err := stage.Run(ctx, stage.Options{Store: store, Handler: handler, RunID: "run-1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.ByStatus[ledger.StatusFailed] != 1 || summary.ByStatus[ledger.StatusSuccess] != 1 {
		t.Fatalf("unexpected summary: %+v", summary.ByStatus)
	}

	status, err := store.StatusOf(ctx, "bad", ledger.StageDownload)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != ledger.StatusFailed {
		t.Fatalf("expected failed record, got %s", status)
	}
	status, err = store.StatusOf(ctx, "good", ledger.StageDownload)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != ledger.StatusSuccess {
		t.Fatalf("expected success record, got %s", status)
	}
}

func TestRunHonorsPrerequisite(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	seedItems(t, store, "downloaded", "stuck")

	if _, err := store.RecordOutcome(ctx, "downloaded", ledger.StageDownload, ledger.StatusSuccess, "", "run-0"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := store.RecordOutcome(ctx, "stuck", ledger.StageDownload, ledger.StatusFailed, "", "run-0"); err != nil {
		t.Fatalf("record: %v", err)
	}

	handler := &scriptedHandler{name: ledger.StageClean}
	summary, err := stage.Run(ctx, stage.Options{Store: store, Handler: handler, RunID: "run-1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("expected only the downloaded item, got %d", summary.Processed)
	}
	if len(handler.seen) != 1 || handler.seen[0] != "downloaded" {
		t.Fatalf("unexpected items processed: %v", handler.seen)
	}

	// The blocked item stays pending for a later run, no record written.
	status, err := store.StatusOf(ctx, "stuck", ledger.StageClean)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != ledger.StatusPending {
		t.Fatalf("expected pending, got %s", status)
	}
}

func TestRunLeavesRejectedAnnotationOutOfDetection(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	seedItems(t, store, "refused")

	if _, err := store.RecordOutcome(ctx, "refused", ledger.StageRefine, ledger.StatusSuccess, "", "run-0"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := store.RecordOutcome(ctx, "refused", ledger.StageVLM, ledger.StatusRejected, "only music markers", "run-0"); err != nil {
		t.Fatalf("record: %v", err)
	}

	handler := &scriptedHandler{name: ledger.StageAdverseEvent}
	for _, runID := range []string{"run-1", "run-2"} {
		summary, err := stage.Run(ctx, stage.Options{Store: store, Handler: handler, RunID: runID})
		if err != nil {
			t.Fatalf("run %s: %v", runID, err)
		}
		if summary.Processed != 0 {
			t.Fatalf("run %s processed %d items, want 0", runID, summary.Processed)
		}
	}
	if len(handler.seen) != 0 {
		t.Fatalf("handler invoked for %v", handler.seen)
	}

	// The item stays pending rather than failing on a missing annotation.
	status, err := store.StatusOf(ctx, "refused", ledger.StageAdverseEvent)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != ledger.StatusPending {
		t.Fatalf("expected pending, got %s", status)
	}
}

func TestRunCapsItemsPerPass(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	seedItems(t, store, "a", "b", "c")

	handler := &scriptedHandler{name: ledger.StageDownload}
	summary, err := stage.Run(ctx, stage.Options{Store: store, Handler: handler, RunID: "run-1", MaxItems: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 2 {
		t.Fatalf("expected cap of 2, got %d", summary.Processed)
	}
}

func TestRunRecordsTimeoutSentinel(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	seedItems(t, store, "slow")

	handler := &scriptedHandler{
		name: ledger.StageDownload,
		execute: func(*ledger.Item) (stage.Outcome, error) {
			return stage.Outcome{}, fmt.Errorf("probe: %w", context.DeadlineExceeded)
		},
	}
	summary, err := stage.Run(ctx, stage.Options{Store: store, Handler: handler, RunID: "run-1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.ByStatus[ledger.StatusFailed] != 1 {
		t.Fatalf("unexpected summary: %+v", summary.ByStatus)
	}

	history, err := store.History(ctx, "slow")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	last := history[len(history)-1]
	if last.Status != ledger.StatusFailed || !strings.Contains(last.Detail, "timeout") {
		t.Fatalf("record = %s %q, want failed with timeout detail", last.Status, last.Detail)
	}
}

func TestRunNonSuccessOutcomesAreRecorded(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	seedItems(t, store, "long", "boring")

	handler := &scriptedHandler{
		name: ledger.StageDownload,
		execute: func(item *ledger.Item) (stage.Outcome, error) {
			if item.Key == "long" {
				return stage.Skipped("duration over cap"), nil
			}
			return stage.Rejected("not analyzable"), nil
		},
	}
	if _, err := stage.Run(ctx, stage.Options{Store: store, Handler: handler, RunID: "run-1"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	status, _ := store.StatusOf(ctx, "long", ledger.StageDownload)
	if status != ledger.StatusSkipped {
		t.Fatalf("expected skipped, got %s", status)
	}
	status, _ = store.StatusOf(ctx, "boring", ledger.StageDownload)
	if status != ledger.StatusRejected {
		t.Fatalf("expected rejected, got %s", status)
	}
}
