package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/ytdlp"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/stage"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/testsupport"
)

type fakeInspector struct {
	entries map[string][]ytdlp.Entry
}

func (f *fakeInspector) Inspect(_ context.Context, url string) ([]ytdlp.Entry, error) {
	entries, ok := f.entries[url]
	if !ok {
		return nil, fmt.Errorf("unknown link %s", url)
	}
	return entries, nil
}

type fakeHandler struct {
	name     ledger.Stage
	outcome  stage.Outcome
	err      error
	executed []string
}

func (f *fakeHandler) Name() ledger.Stage            { return f.name }
func (f *fakeHandler) Prepare(context.Context) error { return nil }

func (f *fakeHandler) Execute(_ context.Context, item *ledger.Item) (stage.Outcome, error) {
	f.executed = append(f.executed, item.Key)
	return f.outcome, f.err
}

func TestSelect(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{value: "all", want: len(ledger.StageOrder)},
		{value: "All", want: len(ledger.StageOrder)},
		{value: "download", want: 1},
		{value: "adverse_event", want: 1},
		{value: "polish", wantErr: true},
		{value: "", wantErr: true},
	}
	for _, tt := range tests {
		stages, err := Select(tt.value)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Select(%q): expected error", tt.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("Select(%q): %v", tt.value, err)
			continue
		}
		if len(stages) != tt.want {
			t.Errorf("Select(%q) = %d stages, want %d", tt.value, len(stages), tt.want)
		}
	}
}

func TestRunIngestsAndExecutesDownloadStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.LinksFile, "https://example.com/watch?v=abc\n# comment\n")

	inspector := &fakeInspector{entries: map[string][]ytdlp.Entry{
		"https://example.com/watch?v=abc": {
			{ID: "abc", URL: "https://example.com/watch?v=abc", Title: "Phaco demo"},
		},
	}}
	handler := &fakeHandler{name: ledger.StageDownload, outcome: stage.Success("done")}

	controller := New(cfg, logging.NewNop(), WithInspector(inspector), WithHandler(handler))
	runReport, err := controller.Run(context.Background(), "download")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if runReport.RunID == "" {
		t.Fatal("expected run id")
	}
	if runReport.Ingest == nil || runReport.Ingest.Registered != 1 {
		t.Fatalf("ingest result = %+v, want 1 registered", runReport.Ingest)
	}
	if len(runReport.Stages) != 1 || runReport.Stages[0].Processed != 1 {
		t.Fatalf("stage summaries = %+v", runReport.Stages)
	}
	if len(handler.executed) != 1 || handler.executed[0] != "abc" {
		t.Fatalf("executed = %v", handler.executed)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	status, err := store.StatusOf(context.Background(), "abc", ledger.StageDownload)
	if err != nil {
		t.Fatalf("status of: %v", err)
	}
	if status != ledger.StatusSuccess {
		t.Fatalf("status = %s, want success", status)
	}
}

func TestRunSecondPassSkipsSettledItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.LinksFile, "https://example.com/watch?v=abc\n")

	inspector := &fakeInspector{entries: map[string][]ytdlp.Entry{
		"https://example.com/watch?v=abc": {
			{ID: "abc", URL: "https://example.com/watch?v=abc"},
		},
	}}
	handler := &fakeHandler{name: ledger.StageDownload, outcome: stage.Success("done")}
	controller := New(cfg, logging.NewNop(), WithInspector(inspector), WithHandler(handler))

	for pass := 0; pass < 2; pass++ {
		if _, err := controller.Run(context.Background(), "download"); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
	}
	if len(handler.executed) != 1 {
		t.Fatalf("item executed %d times, want 1", len(handler.executed))
	}
}

func TestRunFailedItemRetriesNextPass(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.LinksFile, "https://example.com/watch?v=abc\n")

	inspector := &fakeInspector{entries: map[string][]ytdlp.Entry{
		"https://example.com/watch?v=abc": {
			{ID: "abc", URL: "https://example.com/watch?v=abc"},
		},
	}}
	handler := &fakeHandler{name: ledger.StageDownload, err: errors.New("network down")}
	controller := New(cfg, logging.NewNop(), WithInspector(inspector), WithHandler(handler))

	if _, err := controller.Run(context.Background(), "download"); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	handler.err = nil
	handler.outcome = stage.Success("recovered")
	if _, err := controller.Run(context.Background(), "download"); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(handler.executed) != 2 {
		t.Fatalf("item executed %d times, want 2", len(handler.executed))
	}

	store := testsupport.MustOpenLedger(t, cfg)
	status, err := store.StatusOf(context.Background(), "abc", ledger.StageDownload)
	if err != nil {
		t.Fatalf("status of: %v", err)
	}
	if status != ledger.StatusSuccess {
		t.Fatalf("status = %s, want success", status)
	}
}

func TestRunSingleStageOutOfOrderFailsFast(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store := testsupport.MustOpenLedger(t, cfg)
	if _, err := store.SaveItem(ctx, &ledger.Item{Key: "abc", URL: "https://example.com/watch?v=abc"}); err != nil {
		t.Fatal(err)
	}

	handler := &fakeHandler{name: ledger.StageClean, outcome: stage.Success("")}
	controller := New(cfg, logging.NewNop(), WithHandler(handler))

	_, err := controller.Run(ctx, "clean")
	if err == nil {
		t.Fatal("expected prerequisite error for out-of-order stage")
	}
	if !errors.Is(err, services.ErrPrerequisite) {
		t.Fatalf("error = %v, want prerequisite sentinel", err)
	}
	if len(handler.executed) != 0 {
		t.Fatalf("handler executed %v, want none", handler.executed)
	}
}

func TestRunRefusesConcurrentInvocation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "pipeline.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("seed lock: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	controller := New(cfg, logging.NewNop())
	_, err = controller.Run(context.Background(), "summarize")
	if err == nil {
		t.Fatal("expected lock contention error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration sentinel", err)
	}
}

func TestRunMissingGeminiKeyIsConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.VLM.APIKey = ""

	controller := New(cfg, logging.NewNop())
	_, err := controller.Run(context.Background(), "vlm")
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration sentinel", err)
	}
}

func TestStatusReportsPerStageStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store := testsupport.MustOpenLedger(t, cfg)
	if _, err := store.SaveItem(ctx, &ledger.Item{Key: "abc", URL: "https://example.com/watch?v=abc"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordOutcome(ctx, "abc", ledger.StageDownload, ledger.StatusSuccess, "", "run1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordOutcome(ctx, "abc", ledger.StageClean, ledger.StatusSkipped, "too long", "run1"); err != nil {
		t.Fatal(err)
	}

	statusReport, err := Status(ctx, cfg)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(statusReport.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(statusReport.Items))
	}
	item := statusReport.Items[0]
	if item.Statuses[ledger.StageDownload] != ledger.StatusSuccess {
		t.Errorf("download status = %s", item.Statuses[ledger.StageDownload])
	}
	if item.Statuses[ledger.StageClean] != ledger.StatusSkipped {
		t.Errorf("clean status = %s", item.Statuses[ledger.StageClean])
	}
	if item.Statuses[ledger.StageVLM] != ledger.StatusPending {
		t.Errorf("vlm status = %s", item.Statuses[ledger.StageVLM])
	}
	if statusReport.Totals[ledger.StageDownload][ledger.StatusSuccess] != 1 {
		t.Errorf("totals = %+v", statusReport.Totals)
	}
}
