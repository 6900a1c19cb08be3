package artifacts

import (
	"path/filepath"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
)

// Per-item artifact locations. Every stage derives its inputs and outputs
// from the item key through these helpers so the layout stays consistent.

// VideoPath is the downloaded video container.
func VideoPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.VideosDir, key+".mp4")
}

// MetadataPath is the per-item source metadata sidecar written at download.
func MetadataPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.VideosDir, key+".info.json")
}

// AudioPath is the extracted 16 kHz mono WAV.
func AudioPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.AudioDir, key+".wav")
}

// TranscriptPath is the normalized timed-segment JSON array.
func TranscriptPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.TranscriptDir, key+".json")
}

// RawTranscriptDir holds the unprocessed speech-to-text output.
func RawTranscriptDir(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.TranscriptDir, "raw")
}

// RefinedPath is the human-readable refined transcript.
func RefinedPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.RefinedDir, key+".txt")
}

// FullResponsePath preserves the raw refiner response for auditing.
func FullResponsePath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.RefinedDir, "full_responses", key+"_full_response.txt")
}

// AnnotationPath is the per-item annotation JSONL record.
func AnnotationPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.VLMDir, key+".jsonl")
}

// AnnotationNoFindingsPath records an accepted item whose generation produced
// zero steps. It deliberately sits outside the aggregate's *.jsonl scan so
// no-findings items never contribute aggregate rows.
func AnnotationNoFindingsPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.VLMDir, key+".no_findings.json")
}

// AnnotationAggregatePath is the key-sorted union of all annotation records.
func AnnotationAggregatePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.VLMDir, cfg.VLM.AggregateFile)
}

// AnnotationLogPath is the annotation decision CSV log.
func AnnotationLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.VLMDir, cfg.VLM.LogFile)
}

// AdverseEventPath is the per-item adverse event JSONL record. Only written
// when events were detected.
func AdverseEventPath(cfg *config.Config, key string) string {
	return filepath.Join(cfg.Paths.AdverseDir, key+".jsonl")
}

// AdverseAggregatePath is the key-sorted union of all detection records.
func AdverseAggregatePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.AdverseDir, cfg.AdverseEvent.AggregateFile)
}

// AdverseLogPath is the detection outcome CSV log.
func AdverseLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.AdverseDir, cfg.AdverseEvent.LogFile)
}

// SummaryPath is the merged dataset summary CSV.
func SummaryPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "dataset_summary.csv")
}
