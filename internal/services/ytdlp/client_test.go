package ytdlp_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/ytdlp"
)

func stubRunner(output string, capture *[]string) ytdlp.Runner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if capture != nil {
			*capture = append([]string{}, args...)
		}
		return []byte(output), nil
	}
}

func TestInspectSingleVideo(t *testing.T) {
	payload := `{"_type":"video","id":"abc123","title":"Phaco demo","webpage_url":"https://youtu.be/abc123"}`
	client := ytdlp.NewClient("", ytdlp.WithRunner(stubRunner(payload, nil)))

	entries, err := client.Inspect(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != "abc123" || entries[0].Playlist != "" {
		t.Fatalf("unexpected entry: %#v", entries[0])
	}
}

func TestInspectPlaylistExpandsEntries(t *testing.T) {
	payload := `{"_type":"playlist","title":"Cataract course","entries":[
		{"id":"v1","url":"https://youtu.be/v1","title":"Part 1"},
		{"id":"","url":"https://youtu.be/skip","title":"broken"},
		{"id":"v2","url":"https://youtu.be/v2","title":"Part 2"}]}`
	client := ytdlp.NewClient("", ytdlp.WithRunner(stubRunner(payload, nil)))

	entries, err := client.Inspect(context.Background(), "https://youtube.com/playlist?list=x")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Playlist != "Cataract course" {
			t.Fatalf("expected playlist origin recorded, got %#v", entry)
		}
	}
}

func TestProbeParsesMetadata(t *testing.T) {
	payload := `{"id":"abc123","title":"Demo","uploader":"Eye Channel","duration":912.4,"width":854,"height":480}`
	client := ytdlp.NewClient("", ytdlp.WithRunner(stubRunner(payload, nil)))

	meta, err := client.Probe(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if meta.Channel != "Eye Channel" || meta.Resolution() != "854x480" {
		t.Fatalf("unexpected metadata: %#v", meta)
	}
}

func TestResolutionUnknown(t *testing.T) {
	if res := (ytdlp.Metadata{}).Resolution(); res != "N/A" {
		t.Fatalf("expected N/A, got %q", res)
	}
}

func TestDownloadReturnsReportedPath(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "abc123.mp4")
	if err := os.WriteFile(video, []byte("x"), 0o644); err != nil {
		t.Fatalf("write stub video: %v", err)
	}

	var args []string
	client := ytdlp.NewClient("", ytdlp.WithRunner(stubRunner(video+"\n", &args)))
	path, err := client.Download(context.Background(), "https://youtu.be/abc123", dir, "best")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if path != video {
		t.Fatalf("expected %q, got %q", video, path)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--no-playlist") || !strings.Contains(joined, "-f best") {
		t.Fatalf("unexpected args: %s", joined)
	}
}

func TestDownloadMissingFileFails(t *testing.T) {
	client := ytdlp.NewClient("", ytdlp.WithRunner(stubRunner("/does/not/exist.mp4\n", nil)))
	if _, err := client.Download(context.Background(), "https://youtu.be/abc123", t.TempDir(), ""); err == nil {
		t.Fatal("expected error when reported file is missing")
	}
}
