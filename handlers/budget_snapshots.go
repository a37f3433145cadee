package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"budgetengine/services"
)

// HandleSnapshotList returns snapshot summaries, newest first. The optional
// ?scenario= query narrows the list to one scenario name.
// Route: GET /api/budget/snapshots
func HandleSnapshotList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		col, err := app.FindCollectionByNameOrId("budget_snapshots")
		if err != nil {
			return internalError(e, "snapshot_list", err)
		}

		filter := "id != ''"
		params := map[string]any{}
		if name := strings.TrimSpace(e.Request.URL.Query().Get("scenario")); name != "" {
			filter = "scenario_name = {:name}"
			params["name"] = name
		}

		records, err := app.FindRecordsByFilter(col, filter, "-computed_at", 0, 0, params)
		if err != nil {
			return internalError(e, "snapshot_list", err)
		}

		items := make([]SnapshotSummary, 0, len(records))
		for _, rec := range records {
			items = append(items, snapshotSummary(rec))
		}
		return e.JSON(http.StatusOK, map[string]any{"items": items})
	}
}

// HandleSnapshotGet returns a snapshot with its stored input and result.
// Route: GET /api/budget/snapshots/{id}
func HandleSnapshotGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("budget_snapshots", e.Request.PathValue("id"))
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Snapshot not found")
		}
		resp, err := snapshotResponse(rec)
		if err != nil {
			return internalError(e, "snapshot_get", err)
		}
		return e.JSON(http.StatusOK, resp)
	}
}

// HandleSnapshotCompare reports how the budget moved between two snapshots.
// The older of the two is always the baseline.
// Route: GET /api/budget/snapshots/{id}/compare/{otherId}
func HandleSnapshotCompare(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ids := []string{e.Request.PathValue("id"), e.Request.PathValue("otherId")}
		snaps := make([]services.Snapshot, 0, len(ids))
		for _, id := range ids {
			rec, err := app.FindRecordById("budget_snapshots", id)
			if err != nil {
				return ErrorJSON(e, http.StatusNotFound, "Snapshot not found: "+id)
			}
			snap, err := snapshotFromRecord(rec)
			if err != nil {
				return internalError(e, "snapshot_compare", err)
			}
			snaps = append(snaps, snap)
		}

		return e.JSON(http.StatusOK, services.CompareBudgets(snaps[0], snaps[1]))
	}
}
