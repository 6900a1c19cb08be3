package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/download"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
)

var metadataColumns = []string{
	"title", "video_name", "transcript_name", "audio_name", "duration_seconds",
	"word_count", "channel_name", "url", "download_name", "download_date",
}

func summaryColumns() []string {
	columns := append([]string(nil), metadataColumns...)
	for _, stageName := range ledger.StageOrder {
		columns = append(columns, string(stageName)+"_status")
	}
	return columns
}

// Row is one dataset summary record, merging source metadata with
// refinement results for a fully-processed item.
type Row struct {
	Title           string
	VideoName       string
	TranscriptName  string
	AudioName       string
	DurationSeconds float64
	WordCount       int
	ChannelName     string
	URL             string
	DownloadName    string
	DownloadDate    string
}

// BuildRow assembles the summary record for one item from its artifacts.
func BuildRow(cfg *config.Config, item *ledger.Item) (Row, error) {
	meta, err := download.ReadMetadata(artifacts.MetadataPath(cfg, item.Key))
	if err != nil {
		return Row{}, fmt.Errorf("metadata for %s: %w", item.Key, err)
	}
	refined, err := os.ReadFile(artifacts.RefinedPath(cfg, item.Key))
	if err != nil {
		return Row{}, fmt.Errorf("refined transcript for %s: %w", item.Key, err)
	}

	return Row{
		Title:           meta.Title,
		VideoName:       meta.VideoFile,
		TranscriptName:  item.Key + ".txt",
		AudioName:       meta.AudioFile,
		DurationSeconds: meta.DurationSeconds,
		WordCount:       len(strings.Fields(string(refined))),
		ChannelName:     meta.Channel,
		URL:             meta.URL,
		DownloadName:    meta.VideoFile,
		DownloadDate:    meta.DownloadedAt,
	}, nil
}

// Rebuild regenerates the dataset summary CSV: one row per registered item
// in registration order, joining source metadata and refinement results with
// the latest ledger status of every stage. Items that have not reached
// refinement still appear, with their later stages shown as pending. The
// projection is rebuilt whole each time so removed or re-settled items never
// leave stale rows behind.
func Rebuild(ctx context.Context, cfg *config.Config, store *ledger.Store) (int, error) {
	byStage := make(map[ledger.Stage]map[string]ledger.Status, len(ledger.StageOrder))
	var items []ledger.Item
	for i, stageName := range ledger.StageOrder {
		statuses, err := store.ItemStatuses(ctx, stageName)
		if err != nil {
			return 0, err
		}
		byStage[stageName] = make(map[string]ledger.Status, len(statuses))
		for _, entry := range statuses {
			byStage[stageName][entry.Item.Key] = entry.Status
			if i == 0 {
				items = append(items, entry.Item)
			}
		}
	}

	path := artifacts.SummaryPath(cfg)
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create summary: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(summaryColumns()); err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("write summary header: %w", err)
	}
	for i := range items {
		item := items[i]
		record := metadataFields(cfg, &item)
		for _, stageName := range ledger.StageOrder {
			status := byStage[stageName][item.Key]
			if status == "" {
				status = ledger.StatusPending
			}
			record = append(record, string(status))
		}
		if err := writer.Write(record); err != nil {
			_ = file.Close()
			return 0, fmt.Errorf("write summary row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("flush summary: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close summary: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("place summary: %w", err)
	}
	return len(items), nil
}

// metadataFields renders the metadata half of one summary row. Items whose
// artifacts have not been produced yet keep the registry title and URL and
// leave the rest blank.
func metadataFields(cfg *config.Config, item *ledger.Item) []string {
	row, err := BuildRow(cfg, item)
	if err != nil {
		return []string{item.Title, "", "", "", "", "", "", item.URL, "", ""}
	}
	return []string{
		row.Title,
		row.VideoName,
		row.TranscriptName,
		row.AudioName,
		strconv.FormatFloat(row.DurationSeconds, 'f', -1, 64),
		strconv.Itoa(row.WordCount),
		row.ChannelName,
		row.URL,
		row.DownloadName,
		row.DownloadDate,
	}
}
