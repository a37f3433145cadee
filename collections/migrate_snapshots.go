package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"go.uber.org/zap"

	"budgetengine/services"
)

// BackfillSnapshotTotals copies the headline figures of each stored result
// into the numeric total columns for snapshots written before those columns
// existed. Safe to call on every startup -- returns early if nothing to
// migrate.
func BackfillSnapshotTotals(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId("budget_snapshots")
	if err != nil {
		return fmt.Errorf("migrate: could not find budget_snapshots collection: %w", err)
	}

	// A priced snapshot never has a zero total_price unless its result is
	// empty too, in which case rewriting zeros is harmless.
	pending, err := app.FindRecordsByFilter(
		col,
		"total_price = 0 && total_cost = 0",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query snapshots: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	zap.S().Infow("migrate: backfilling snapshot totals", "pending", len(pending))

	updated := 0
	for _, rec := range pending {
		var b services.ConsolidatedBudget
		if err := rec.UnmarshalJSONField("result", &b); err != nil {
			zap.S().Warnw("migrate: snapshot has an unreadable result", "id", rec.Id, "error", err)
			continue
		}
		if b.TotalPrice == 0 && b.TotalCost == 0 {
			continue
		}

		rec.Set("total_price", b.TotalPrice)
		rec.Set("total_cost", b.TotalCost)
		rec.Set("profit", b.Profit)
		rec.Set("margin_percent", b.ProfitMarginPercent)
		if err := app.Save(rec); err != nil {
			zap.S().Warnw("migrate: failed to backfill snapshot", "id", rec.Id, "error", err)
			continue
		}
		updated++
	}

	zap.S().Infow("migrate: snapshot backfill complete", "updated", updated)
	return nil
}
