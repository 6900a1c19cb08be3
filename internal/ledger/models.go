package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Stage identifies one processing step of the pipeline.
type Stage string

const (
	StageDownload     Stage = "download"
	StageClean        Stage = "clean"
	StageTranscribe   Stage = "transcribe"
	StageRefine       Stage = "refine"
	StageSummarize    Stage = "summarize"
	StageVLM          Stage = "vlm"
	StageAdverseEvent Stage = "adverse_event"
)

// StageOrder is the fixed execution order of the pipeline.
var StageOrder = []Stage{
	StageDownload,
	StageClean,
	StageTranscribe,
	StageRefine,
	StageSummarize,
	StageVLM,
	StageAdverseEvent,
}

// ParseStage validates a user-supplied stage name.
func ParseStage(value string) (Stage, error) {
	candidate := Stage(strings.ToLower(strings.TrimSpace(value)))
	for _, stage := range StageOrder {
		if candidate == stage {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", value)
}

// Prerequisite returns the stage that must have succeeded before the given
// stage may run, or empty for the first stage. The summarize and vlm stages
// read the refined transcript; adverse event detection reads the annotation
// record, so items whose gate rejected annotation are never scanned.
func Prerequisite(stage Stage) Stage {
	switch stage {
	case StageDownload:
		return ""
	case StageClean:
		return StageDownload
	case StageTranscribe:
		return StageClean
	case StageRefine:
		return StageTranscribe
	case StageSummarize, StageVLM:
		return StageRefine
	case StageAdverseEvent:
		return StageVLM
	default:
		return ""
	}
}

// Status is the recorded outcome of a stage for one item.
type Status string

const (
	// StatusPending means no outcome has been recorded yet.
	StatusPending Status = "pending"
	// StatusSuccess means the stage produced its artifact.
	StatusSuccess Status = "success"
	// StatusSkipped means a policy filter excluded the item (e.g. too long).
	StatusSkipped Status = "skipped"
	// StatusFailed means the stage errored; the item is retried next run.
	StatusFailed Status = "failed"
	// StatusRejected means the quality gate declined generation.
	StatusRejected Status = "rejected"
	// StatusNoEvent means adverse event detection found nothing reportable.
	StatusNoEvent Status = "no_event"
)

// Eligible reports whether an item with this recorded status should be
// processed when its stage runs. Only pending and failed items are picked
// up; every other status is a settled outcome.
func (s Status) Eligible() bool {
	return s == StatusPending || s == StatusFailed
}

// Terminal reports whether the status is a settled outcome that reruns must
// not disturb.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusSkipped, StatusRejected, StatusNoEvent:
		return true
	default:
		return false
	}
}

// Item is one video registered for processing, keyed by its stable source
// identifier.
type Item struct {
	Key       string
	URL       string
	Title     string
	Playlist  string
	CreatedAt time.Time
}

// Record is one appended stage outcome. Records are never updated in place;
// the latest record for an (item, stage) pair wins.
type Record struct {
	ID        int64
	ItemKey   string
	Stage     Stage
	Status    Status
	Detail    string
	RunID     string
	CreatedAt time.Time
}

// ItemStatus pairs an item with its latest recorded status for one stage.
type ItemStatus struct {
	Item   Item
	Status Status
}
