package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/logging"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [stage]",
		Short: "Run the pipeline (all stages, or a single named stage)",
		Long: "Run the pipeline over every registered video. Stages: download, clean, " +
			"transcribe, refine, summarize, vlm, adverse_event, or all (default). " +
			"Items with a settled outcome are never reprocessed; failed items retry.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			selection := pipeline.SelectionAll
			if len(args) == 1 {
				selection = args[0]
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			controller := pipeline.New(cfg, logger)
			runReport, err := controller.Run(cmd.Context(), selection)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s complete\n", runReport.RunID)
			if runReport.Ingest != nil {
				fmt.Fprintf(out, "Links: %d registered, %d known, %d failed\n",
					runReport.Ingest.Registered, runReport.Ingest.Duplicates, runReport.Ingest.Failed)
			}
			if len(runReport.Stages) > 0 {
				fmt.Fprintln(out, renderRunTable(runReport))
			}
			if runReport.SummaryRows > 0 {
				fmt.Fprintf(out, "Dataset summary: %d rows\n", runReport.SummaryRows)
			}
			return nil
		},
	}
	return cmd
}

func renderRunTable(runReport *pipeline.Report) string {
	headers := []string{"Stage", "Processed", "Success", "Skipped", "Rejected", "No Event", "Failed"}
	rows := make([][]string, 0, len(runReport.Stages))
	for _, summary := range runReport.Stages {
		rows = append(rows, []string{
			stageLabel(summary.Stage),
			strconv.Itoa(summary.Processed),
			strconv.Itoa(summary.ByStatus[ledger.StatusSuccess]),
			strconv.Itoa(summary.ByStatus[ledger.StatusSkipped]),
			strconv.Itoa(summary.ByStatus[ledger.StatusRejected]),
			strconv.Itoa(summary.ByStatus[ledger.StatusNoEvent]),
			strconv.Itoa(summary.ByStatus[ledger.StatusFailed]),
		})
	}
	return renderTable(headers, rows, 1, 2, 3, 4, 5, 6)
}
