package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/services"
)

// ErrSnapshotImmutable is returned when an update would change what a
// snapshot recorded.
var ErrSnapshotImmutable = errors.New("budget snapshots are immutable")

// frozenSnapshotFields may not change once a snapshot is stored. The total
// columns are derived from result and may be backfilled.
var frozenSnapshotFields = []string{"scenario_name", "run_id", "computed_at", "input", "result"}

// RegisterBudgetHooks snapshots scenarios whenever they are created or
// updated and guards stored snapshots against edits.
func RegisterBudgetHooks(app *pocketbase.PocketBase, calc *services.BudgetCache) {
	recompute := func(e *core.RecordEvent) error {
		runID := runIDFromContext(e.Context)
		snap, err := snapshotScenario(e.App, calc, e.Record, runID, time.Now().UTC())
		if err != nil {
			// The scenario itself is already saved; a failed snapshot is
			// reported but does not undo it.
			zap.S().Warnw("scenario snapshot failed",
				"scenario", e.Record.Id, "name", e.Record.GetString("name"), "error", err)
			return e.Next()
		}
		zap.S().Infow("scenario snapshot stored",
			"scenario", e.Record.Id, "snapshot", snap.Id, "run_id", runID,
			"total_price", snap.GetFloat("total_price"))
		return e.Next()
	}
	app.OnRecordAfterCreateSuccess("budget_scenarios").BindFunc(recompute)
	app.OnRecordAfterUpdateSuccess("budget_scenarios").BindFunc(recompute)

	app.OnRecordUpdate("budget_snapshots").BindFunc(func(e *core.RecordEvent) error {
		if err := checkSnapshotUnchanged(e.Record); err != nil {
			return err
		}
		return e.Next()
	})

	// Deleted scenarios free their cache slot.
	app.OnRecordAfterDeleteSuccess("budget_scenarios").BindFunc(func(e *core.RecordEvent) error {
		if s, err := scenarioFromRecord(e.Record); err == nil {
			calc.Forget(s)
		}
		return e.Next()
	})
}

// runIDFromContext returns the run id of the request that saved the record,
// or a new one for saves made outside a request.
func runIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(RunIDKey).(string); ok && id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// checkSnapshotUnchanged compares the frozen fields of rec with their
// stored values.
func checkSnapshotUnchanged(rec *core.Record) error {
	orig := rec.Original()
	for _, field := range frozenSnapshotFields {
		if rec.GetString(field) != orig.GetString(field) {
			return fmt.Errorf("%w: field %q cannot be changed", ErrSnapshotImmutable, field)
		}
	}
	return nil
}

// snapshotScenario computes the scenario stored in rec and saves the result
// as a new snapshot linked to it.
func snapshotScenario(app core.App, calc *services.BudgetCache, rec *core.Record, runID string, at time.Time) (*core.Record, error) {
	s, err := scenarioFromRecord(rec)
	if err != nil {
		return nil, err
	}
	s = calc.Engine().Prepare(s)
	if err := services.ValidateScenario(s); err != nil {
		return nil, err
	}

	budget, _, err := calc.Calculate(s)
	if err != nil {
		return nil, err
	}
	return saveSnapshot(app, rec.Id, runID, s, budget, at)
}

func isInvalidScenario(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs)
}
