package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/services"
)

// maxRosterUpload bounds the multipart form of a roster upload.
const maxRosterUpload = 10 << 20

// HandleRosterTemplateDownload serves an empty roster workbook.
// Route: GET /api/budget/roster/template
func HandleRosterTemplateDownload() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := services.GenerateRosterTemplate()
		if err != nil {
			return internalError(e, "roster_template", err)
		}
		return writeXLSX(e, "Roster_Template.xlsx", data)
	}
}

// HandleRosterImport parses an uploaded .csv or .xlsx roster and returns the
// members it could read together with per-row errors. Nothing is stored;
// callers place the members into a scenario.
// Route: POST /api/budget/roster/import
func HandleRosterImport() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxRosterUpload); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ParseRoster(header.Filename, file)
		if err != nil {
			zap.S().Infow("roster_import: rejected upload", "file", header.Filename, "error", err)
			return ErrorJSON(e, http.StatusBadRequest, err.Error())
		}

		zap.S().Infow("roster_import: parsed",
			"file", header.Filename, "rows", result.TotalRows, "valid", result.ValidRows)
		return e.JSON(http.StatusOK, result)
	}
}

// HandleRosterErrorReport turns the errors of a previous import into an
// xlsx download. Expects a JSON array of row errors.
// Route: POST /api/budget/roster/errors
func HandleRosterErrorReport() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var rowErrors []services.RowError
		if err := json.NewDecoder(e.Request.Body).Decode(&rowErrors); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid error data")
		}

		data, err := services.GenerateRosterErrorReport(rowErrors)
		if err != nil {
			return internalError(e, "roster_error_report", err)
		}
		return writeXLSX(e, "Roster_Import_Errors.xlsx", data)
	}
}
