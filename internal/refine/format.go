package refine

import (
	"fmt"
	"strings"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/whisper"
)

// FormatTimestamp renders seconds as MM:SS for the readable transcript.
func FormatTimestamp(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// FormatSegments renders segments as "[MM:SS - MM:SS]: text" lines, the form
// the annotation stages consume.
func FormatSegments(segments []whisper.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("[%s - %s]: %s",
			FormatTimestamp(seg.Start),
			FormatTimestamp(seg.End),
			strings.TrimSpace(seg.Text)))
	}
	return strings.Join(lines, "\n")
}

// VerifyBoundaries confirms the refiner returned one segment per input with
// identical timing. Any drift means the model rewrote structure it was told
// to preserve.
func VerifyBoundaries(original, refined []whisper.Segment) error {
	if len(refined) != len(original) {
		return fmt.Errorf("segment count changed: %d -> %d", len(original), len(refined))
	}
	for i := range original {
		if original[i].Start != refined[i].Start || original[i].End != refined[i].End {
			return fmt.Errorf("segment %d boundaries changed: [%.1f %.1f] -> [%.1f %.1f]",
				i, original[i].Start, original[i].End, refined[i].Start, refined[i].End)
		}
	}
	return nil
}

// WordCount counts whitespace-separated words across all segment text.
func WordCount(segments []whisper.Segment) int {
	total := 0
	for _, seg := range segments {
		total += len(strings.Fields(seg.Text))
	}
	return total
}
