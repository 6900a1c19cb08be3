package download

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata is the per-item source description captured at download time and
// consumed by the hygiene filter and the dataset summary.
type Metadata struct {
	Title           string  `json:"title"`
	Channel         string  `json:"channel_name"`
	URL             string  `json:"url"`
	VideoFile       string  `json:"filename"`
	AudioFile       string  `json:"audio_filename"`
	DownloadedAt    string  `json:"download_date"`
	DurationSeconds float64 `json:"duration_seconds"`
	Resolution      string  `json:"resolution"`
}

// WriteMetadata persists the sidecar next to the video.
func WriteMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads a sidecar written by WriteMetadata.
func ReadMetadata(path string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return meta, nil
}
