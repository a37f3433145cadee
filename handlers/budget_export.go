package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/services"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeXLSX sends a workbook as a file download.
func writeXLSX(e *core.RequestEvent, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", xlsxContentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	e.Response.WriteHeader(http.StatusOK)
	_, err := e.Response.Write(data)
	return err
}

// HandleSnapshotExportExcel downloads a stored snapshot as an xlsx workbook.
// Route: GET /api/budget/snapshots/{id}/export/excel
func HandleSnapshotExportExcel(app *pocketbase.PocketBase, currency services.Currency) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("budget_snapshots", e.Request.PathValue("id"))
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Snapshot not found")
		}

		snap, err := snapshotResponse(rec)
		if err != nil {
			return internalError(e, "export_excel", err)
		}

		computed := rec.GetDateTime("computed_at").Time()
		xlsxBytes, err := services.GenerateBudgetExcel(services.BudgetExportData{
			Title:      "Budget " + snap.ScenarioName,
			Scenario:   snap.ScenarioName,
			ComputedAt: computed.Format("2006-01-02 15:04 MST"),
			Currency:   currency,
			Budget:     snap.Result,
		})
		if err != nil {
			return internalError(e, "export_excel", err)
		}

		zap.S().Debugw("snapshot exported", "snapshot", rec.Id, "bytes", len(xlsxBytes))

		filename := fmt.Sprintf("Budget_%s_%s.xlsx", sanitizeFilename(snap.ScenarioName), computed.Format("20060102"))
		return writeXLSX(e, filename, xlsxBytes)
	}
}
