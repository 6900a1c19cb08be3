package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/pipeline"
)

var titleCaser = cases.Title(language.English)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-video progress across all stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statusReport, err := pipeline.Status(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ledger: %s\n", statusReport.LedgerPath)
			if len(statusReport.Items) == 0 {
				fmt.Fprintln(out, "No videos registered yet. Add links and run `vidpipe run download`.")
				return nil
			}
			fmt.Fprintln(out, renderStatusTable(statusReport))
			return nil
		},
	}
}

func renderStatusTable(statusReport *pipeline.StatusReport) string {
	headers := []string{"Video", "Title"}
	for _, stageName := range ledger.StageOrder {
		headers = append(headers, stageLabel(stageName))
	}

	rows := make([][]string, 0, len(statusReport.Items))
	for _, progress := range statusReport.Items {
		row := []string{progress.Item.Key, truncateTitle(progress.Item.Title, 40)}
		for _, stageName := range ledger.StageOrder {
			row = append(row, statusLabel(progress.Statuses[stageName]))
		}
		rows = append(rows, row)
	}

	return renderTable(headers, rows)
}

// stageLabel renders a stage name for table headers, e.g. "adverse_event"
// becomes "Adverse Event".
func stageLabel(stageName ledger.Stage) string {
	return titleCaser.String(strings.ReplaceAll(string(stageName), "_", " "))
}

func statusLabel(status ledger.Status) string {
	if status == "" {
		status = ledger.StatusPending
	}
	return strings.ReplaceAll(string(status), "_", " ")
}

func truncateTitle(title string, limit int) string {
	if limit <= 3 || len(title) <= limit {
		return title
	}
	return title[:limit-3] + "..."
}
