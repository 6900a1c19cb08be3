package pipeline

import (
	"context"
	"fmt"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
	"github.com/shahedmomenzadeh/Video-pipeline/internal/ledger"
)

// ItemProgress is one item with its latest status across every stage.
type ItemProgress struct {
	Item     ledger.Item
	Statuses map[ledger.Stage]ledger.Status
}

// StatusReport is a point-in-time view of the ledger for reporting.
type StatusReport struct {
	LedgerPath string
	Totals     map[ledger.Stage]map[ledger.Status]int
	Items      []ItemProgress
}

// Status reads the ledger without taking the run lock; reads are safe
// alongside a live run because records only ever append.
func Status(ctx context.Context, cfg *config.Config) (*StatusReport, error) {
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	totals, err := store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	statusReport := &StatusReport{
		LedgerPath: store.Path(),
		Totals:     totals,
	}

	index := make(map[string]int)
	for _, stageName := range ledger.StageOrder {
		statuses, err := store.ItemStatuses(ctx, stageName)
		if err != nil {
			return nil, err
		}
		for _, entry := range statuses {
			pos, ok := index[entry.Item.Key]
			if !ok {
				pos = len(statusReport.Items)
				index[entry.Item.Key] = pos
				statusReport.Items = append(statusReport.Items, ItemProgress{
					Item:     entry.Item,
					Statuses: make(map[ledger.Stage]ledger.Status, len(ledger.StageOrder)),
				})
			}
			statusReport.Items[pos].Statuses[stageName] = entry.Status
		}
	}
	return statusReport, nil
}
