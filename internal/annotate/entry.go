package annotate

import (
	"encoding/json"
	"fmt"
	"os"
)

// QualityCheck is the persisted gatekeeper verdict.
type QualityCheck struct {
	Decision        string  `json:"decision"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reasoning       string  `json:"reasoning"`
}

// Entry is one dataset record: gate verdict plus the generated step
// annotations, keyed by the stable video identifier.
type Entry struct {
	VideoID                string          `json:"video_id"`
	OriginalFilename       string          `json:"original_filename"`
	Status                 string          `json:"status"`
	VideoURL               string          `json:"video_url"`
	VideoTitle             string          `json:"video_title"`
	DownloadDate           string          `json:"download_date"`
	TranscriptQualityCheck QualityCheck    `json:"transcript_quality_check"`
	VLMAnnotations         json.RawMessage `json:"vlm_annotations"`
}

// WriteEntry persists a single-record JSONL artifact.
func WriteEntry(path string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// ReadEntry loads a single-record JSONL artifact.
func ReadEntry(path string) (Entry, error) {
	var entry Entry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, fmt.Errorf("parse entry %s: %w", path, err)
	}
	return entry, nil
}

// Step mirrors one annotation element for consumers that need typed access.
type Step struct {
	StepNumber        int      `json:"step_number"`
	TimestampStart    string   `json:"timestamp_start"`
	TimestampEnd      string   `json:"timestamp_end"`
	StepTitle         string   `json:"step_title"`
	VisualDescription string   `json:"visual_description"`
	TranscriptContext string   `json:"transcript_context"`
	Instruments       []string `json:"instruments"`
	Anatomy           []string `json:"anatomy"`
}

// Steps decodes the annotation payload.
func (e Entry) Steps() ([]Step, error) {
	if len(e.VLMAnnotations) == 0 {
		return nil, nil
	}
	var steps []Step
	if err := json.Unmarshal(e.VLMAnnotations, &steps); err != nil {
		return nil, fmt.Errorf("decode annotation steps: %w", err)
	}
	return steps, nil
}
