package hygiene_test

import (
	"context"
	"os"
	"testing"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/download"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/hygiene"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/testsupport"
)

type stubProber struct {
	duration float64
	calls    int
}

func (s *stubProber) ProbeDuration(context.Context, string) (float64, error) {
	s.calls++
	return s.duration, nil
}

func TestExecuteKeepsVideoWithinCap(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxDuration(1800))
	testsupport.WriteFile(t, artifacts.VideoPath(cfg, "vid1"), "video")
	testsupport.WriteFile(t, artifacts.AudioPath(cfg, "vid1"), "audio")
	if err := download.WriteMetadata(artifacts.MetadataPath(cfg, "vid1"), download.Metadata{DurationSeconds: 900}); err != nil {
		t.Fatalf("write metadata: %v", err)
	}

	handler := hygiene.NewHandler(cfg, &stubProber{}, nil)
	outcome, err := handler.Execute(context.Background(), &ledger.Item{Key: "vid1", URL: "u"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Status != ledger.StatusSuccess {
		t.Fatalf("expected success, got %s", outcome.Status)
	}
	if _, err := os.Stat(artifacts.VideoPath(cfg, "vid1")); err != nil {
		t.Fatal("video should survive hygiene")
	}
}

func TestExecuteRemovesOversizedVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxDuration(600))
	testsupport.WriteFile(t, artifacts.VideoPath(cfg, "vid1"), "video")
	testsupport.WriteFile(t, artifacts.AudioPath(cfg, "vid1"), "audio")
	if err := download.WriteMetadata(artifacts.MetadataPath(cfg, "vid1"), download.Metadata{DurationSeconds: 3200}); err != nil {
		t.Fatalf("write metadata: %v", err)
	}

	handler := hygiene.NewHandler(cfg, &stubProber{}, nil)
	outcome, err := handler.Execute(context.Background(), &ledger.Item{Key: "vid1", URL: "u"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Status != ledger.StatusSkipped {
		t.Fatalf("expected skipped, got %s", outcome.Status)
	}
	if _, err := os.Stat(artifacts.VideoPath(cfg, "vid1")); !os.IsNotExist(err) {
		t.Fatal("oversized video should be deleted")
	}
	if _, err := os.Stat(artifacts.AudioPath(cfg, "vid1")); !os.IsNotExist(err) {
		t.Fatal("oversized audio should be deleted")
	}
}

func TestExecuteFallsBackToProbe(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxDuration(600))
	testsupport.WriteFile(t, artifacts.VideoPath(cfg, "vid1"), "video")

	prober := &stubProber{duration: 120}
	handler := hygiene.NewHandler(cfg, prober, nil)
	outcome, err := handler.Execute(context.Background(), &ledger.Item{Key: "vid1", URL: "u"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if prober.calls != 1 {
		t.Fatalf("expected one probe call, got %d", prober.calls)
	}
	if outcome.Status != ledger.StatusSuccess {
		t.Fatalf("expected success, got %s", outcome.Status)
	}
}
