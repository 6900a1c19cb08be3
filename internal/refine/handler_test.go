package refine_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/artifacts"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/refine"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/services/whisper"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/testsupport"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/transcribe"
)

type stubEditor struct {
	response string
	prompts  []string
}

func (s *stubEditor) Complete(_ context.Context, _, userPrompt string) (string, error) {
	s.prompts = append(s.prompts, userPrompt)
	return s.response, nil
}

func seedTranscript(t *testing.T, path string, segments []whisper.Segment) {
	t.Helper()
	if err := transcribe.WriteSegments(path, segments); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}
}

func TestExecuteRefinesTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	require.NoError(t, cfg.EnsureDirectories())

	original := []whisper.Segment{
		{Start: 0.0, End: 3.3, Text: "insision made with keratome"},
		{Start: 3.3, End: 7.1, Text: "visco elastic injected"},
	}
	seedTranscript(t, artifacts.TranscriptPath(cfg, "vid1"), original)

	refined := []whisper.Segment{
		{Start: 0.0, End: 3.3, Text: "Incision made with keratome."},
		{Start: 3.3, End: 7.1, Text: "Viscoelastic injected."},
	}
	refinedJSON, err := json.Marshal(refined)
	require.NoError(t, err)

	editor := &stubEditor{response: "<think>checking terminology</think>\n" + string(refinedJSON)}
	handler := refine.NewHandler(cfg, editor, nil)

	outcome, err := handler.Execute(context.Background(), &ledger.Item{Key: "vid1", URL: "u"})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusSuccess, outcome.Status)

	formatted, err := os.ReadFile(artifacts.RefinedPath(cfg, "vid1"))
	require.NoError(t, err)
	require.Contains(t, string(formatted), "[00:00 - 00:03]: Incision made with keratome.")
	require.Contains(t, string(formatted), "[00:03 - 00:07]: Viscoelastic injected.")

	full, err := os.ReadFile(artifacts.FullResponsePath(cfg, "vid1"))
	require.NoError(t, err)
	require.Contains(t, string(full), "<think>")
}

func TestExecuteFailsWhenBoundariesDrift(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	require.NoError(t, cfg.EnsureDirectories())

	original := []whisper.Segment{{Start: 0.0, End: 3.3, Text: "a"}}
	seedTranscript(t, artifacts.TranscriptPath(cfg, "vid1"), original)

	drifted, err := json.Marshal([]whisper.Segment{{Start: 0.5, End: 3.3, Text: "a"}})
	require.NoError(t, err)
	handler := refine.NewHandler(cfg, &stubEditor{response: string(drifted)}, nil)

	_, err = handler.Execute(context.Background(), &ledger.Item{Key: "vid1", URL: "u"})
	require.Error(t, err)
	require.True(t, errors.Is(err, services.ErrSchemaViolation))
}

func TestExecuteSkipsEmptyTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	require.NoError(t, cfg.EnsureDirectories())
	seedTranscript(t, artifacts.TranscriptPath(cfg, "vid1"), nil)

	handler := refine.NewHandler(cfg, &stubEditor{}, nil)
	outcome, err := handler.Execute(context.Background(), &ledger.Item{Key: "vid1", URL: "u"})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusSkipped, outcome.Status)
}

func TestVerifyBoundaries(t *testing.T) {
	original := []whisper.Segment{{Start: 0, End: 1}, {Start: 1, End: 2}}
	same := []whisper.Segment{{Start: 0, End: 1, Text: "x"}, {Start: 1, End: 2, Text: "y"}}
	require.NoError(t, refine.VerifyBoundaries(original, same))

	fewer := same[:1]
	require.Error(t, refine.VerifyBoundaries(original, fewer))
}

func TestFormatTimestamp(t *testing.T) {
	require.Equal(t, "00:00", refine.FormatTimestamp(0))
	require.Equal(t, "01:05", refine.FormatTimestamp(65.9))
	require.Equal(t, "20:00", refine.FormatTimestamp(1200))
}
