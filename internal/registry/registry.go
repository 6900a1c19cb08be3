package registry

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/ytdlp"
)

// Inspector resolves a link into its constituent video entries. Satisfied by
// *ytdlp.Client; injected so tests can avoid the real binary.
type Inspector interface {
	Inspect(ctx context.Context, url string) ([]ytdlp.Entry, error)
}

// Result summarizes one ingestion pass over the links file.
type Result struct {
	Registered int
	Duplicates int
	Failed     int
}

// Ingest reads the links file, expands playlists into individual videos and
// registers each under its stable source identifier. Re-running over the
// same file is a no-op for already-known items. Links that cannot be
// resolved are recorded as failed downloads so they surface in the report
// and retry next run.
func Ingest(ctx context.Context, store *ledger.Store, inspector Inspector, linksFile, runID string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result Result

	links, err := readLinks(linksFile)
	if err != nil {
		return result, err
	}
	if len(links) == 0 {
		logger.Warn("links file contains no entries", slog.String("path", linksFile))
		return result, nil
	}

	for _, link := range links {
		entries, err := inspector.Inspect(ctx, link)
		if err != nil {
			result.Failed++
			logger.Error("resolve link",
				slog.String("url", link),
				logging.Error(err))
			// Registered under a synthetic key so the failure shows up in
			// the status table and dataset summary, not just the counts.
			key := keyForLink(link)
			if _, saveErr := store.SaveItem(ctx, &ledger.Item{Key: key, URL: link}); saveErr != nil {
				return result, fmt.Errorf("register unresolvable link: %w", saveErr)
			}
			if _, recordErr := store.RecordOutcome(ctx, key, ledger.StageDownload, ledger.StatusFailed, err.Error(), runID); recordErr != nil {
				return result, fmt.Errorf("record unresolvable link: %w", recordErr)
			}
			continue
		}
		for _, entry := range entries {
			inserted, err := store.SaveItem(ctx, &ledger.Item{
				Key:      entry.ID,
				URL:      entry.URL,
				Title:    entry.Title,
				Playlist: entry.Playlist,
			})
			if err != nil {
				return result, fmt.Errorf("register %s: %w", entry.ID, err)
			}
			if inserted {
				result.Registered++
				logger.Info("registered video",
					slog.String(logging.FieldItemKey, entry.ID),
					slog.String("title", entry.Title))
			} else {
				result.Duplicates++
			}
		}
	}

	logger.Info("ingestion complete",
		slog.Int("registered", result.Registered),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("failed", result.Failed))
	return result, nil
}

// readLinks parses the links file: one URL per line, blank lines and
// #-comments ignored.
func readLinks(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open links file: %w", err)
	}
	defer file.Close()

	var links []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read links file: %w", err)
	}
	return links, nil
}

// keyForLink derives a ledger key for a link that never resolved to a video
// identifier.
func keyForLink(link string) string {
	replacer := strings.NewReplacer("://", "_", "/", "_", "?", "_", "&", "_", "=", "_")
	return "link:" + replacer.Replace(link)
}
