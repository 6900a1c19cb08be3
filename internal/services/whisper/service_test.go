package whisper_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/whisper"
)

func TestTranscribeLoadsAndNormalizesSegments(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "abc123.wav")

	var captured []string
	svc := whisper.NewService(whisper.Config{Model: "medium", Device: "cuda"})
	svc.WithRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		captured = append([]string{}, args...)
		payload := `{"segments":[{"start":0.04,"end":3.26,"text":"  Incision made.  "},{"start":3.26,"end":7.0,"text":"Phaco begins."}]}`
		if err := os.WriteFile(filepath.Join(dir, "abc123.json"), []byte(payload), 0o644); err != nil {
			t.Fatalf("write whisper output: %v", err)
		}
		return nil, nil
	})

	segments, err := svc.Transcribe(context.Background(), audio, dir)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Start != 0.0 || segments[0].End != 3.3 {
		t.Fatalf("boundaries not rounded: %+v", segments[0])
	}
	if segments[0].Text != "Incision made." {
		t.Fatalf("text not trimmed: %q", segments[0].Text)
	}

	joined := strings.Join(captured, " ")
	for _, fragment := range []string{"--model medium", "--device cuda", "--output_format json"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args: %s", fragment, joined)
		}
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	svc := whisper.NewService(whisper.Config{})
	svc.WithRunner(func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, nil
	})
	if _, err := svc.Transcribe(context.Background(), "clip.wav", t.TempDir()); err == nil {
		t.Fatal("expected error when whisper wrote no JSON")
	}
}

func TestValidateOrder(t *testing.T) {
	ordered := []whisper.Segment{{Start: 0.0}, {Start: 1.5}, {Start: 1.5}, {Start: 4.2}}
	if err := whisper.ValidateOrder(ordered); err != nil {
		t.Fatalf("monotonic segments rejected: %v", err)
	}

	shuffled := []whisper.Segment{{Start: 2.0}, {Start: 1.0}}
	if err := whisper.ValidateOrder(shuffled); err == nil {
		t.Fatal("expected order violation")
	}
}

func TestModelDefaults(t *testing.T) {
	svc := whisper.NewService(whisper.Config{})
	if svc.Model() != whisper.DefaultModel {
		t.Fatalf("unexpected default model %q", svc.Model())
	}
}
