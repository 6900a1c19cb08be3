package main

import (
	"strings"
	"testing"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/pipeline"
)

func TestStageLabel(t *testing.T) {
	tests := []struct {
		stage ledger.Stage
		want  string
	}{
		{stage: ledger.StageDownload, want: "Download"},
		{stage: ledger.StageAdverseEvent, want: "Adverse Event"},
		{stage: ledger.StageVLM, want: "Vlm"},
	}
	for _, tt := range tests {
		if got := stageLabel(tt.stage); got != tt.want {
			t.Errorf("stageLabel(%s) = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestStatusLabelDefaultsToPending(t *testing.T) {
	if got := statusLabel(""); got != "pending" {
		t.Errorf("statusLabel(\"\") = %q", got)
	}
	if got := statusLabel(ledger.StatusNoEvent); got != "no event" {
		t.Errorf("statusLabel(no_event) = %q", got)
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := truncateTitle("short", 40); got != "short" {
		t.Errorf("truncateTitle = %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncateTitle(long, 40)
	if len(got) != 40 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncateTitle long = %q (len %d)", got, len(got))
	}
}

func TestRenderStatusTableIncludesEveryStageColumn(t *testing.T) {
	statusReport := &pipeline.StatusReport{
		Items: []pipeline.ItemProgress{
			{
				Item: ledger.Item{Key: "abc", Title: "Phaco demo"},
				Statuses: map[ledger.Stage]ledger.Status{
					ledger.StageDownload: ledger.StatusSuccess,
					ledger.StageClean:    ledger.StatusSkipped,
				},
			},
		},
	}
	rendered := renderStatusTable(statusReport)
	for _, stageName := range ledger.StageOrder {
		if !strings.Contains(rendered, stageLabel(stageName)) {
			t.Errorf("table missing column %s:\n%s", stageLabel(stageName), rendered)
		}
	}
	if !strings.Contains(rendered, "abc") || !strings.Contains(rendered, "Phaco demo") {
		t.Errorf("table missing item row:\n%s", rendered)
	}
}
