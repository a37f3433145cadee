package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/services"
)

// ScenarioRequest is the body for creating or replacing a stored scenario.
type ScenarioRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Scenario    services.Scenario `json:"scenario"`
}

// HandleScenarioList returns all stored scenarios ordered by name.
// Route: GET /api/budget/scenarios
func HandleScenarioList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		col, err := app.FindCollectionByNameOrId("budget_scenarios")
		if err != nil {
			return internalError(e, "scenario_list", err)
		}

		records, err := app.FindRecordsByFilter(col, "id != ''", "name", 0, 0)
		if err != nil {
			return internalError(e, "scenario_list", err)
		}

		items := make([]ScenarioResponse, 0, len(records))
		for _, rec := range records {
			item, err := scenarioResponse(rec)
			if err != nil {
				zap.S().Warnw("scenario_list: skipping unreadable scenario", "id", rec.Id, "error", err)
				continue
			}
			items = append(items, item)
		}

		return e.JSON(http.StatusOK, map[string]any{"items": items})
	}
}

// HandleScenarioGet returns one stored scenario.
// Route: GET /api/budget/scenarios/{id}
func HandleScenarioGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("budget_scenarios", e.Request.PathValue("id"))
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Scenario not found")
		}
		resp, err := scenarioResponse(rec)
		if err != nil {
			return internalError(e, "scenario_get", err)
		}
		return e.JSON(http.StatusOK, resp)
	}
}

// bindScenarioRequest decodes and validates a ScenarioRequest. On failure
// the error response has already been written and ok is false.
func bindScenarioRequest(e *core.RequestEvent, eng services.Engine) (req ScenarioRequest, ok bool, err error) {
	if err := e.BindBody(&req); err != nil {
		return req, false, ErrorJSON(e, http.StatusBadRequest, "Invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = strings.TrimSpace(req.Scenario.Name)
	}
	if req.Name == "" {
		return req, false, e.JSON(http.StatusBadRequest, errorBody{
			Error:   "invalid scenario",
			Details: map[string]any{"name": "cannot be blank"},
		})
	}
	req.Scenario.Name = req.Name

	req.Scenario = eng.Prepare(req.Scenario)
	if verr := services.ValidateScenario(req.Scenario); verr != nil {
		return req, false, ValidationErrorJSON(e, verr)
	}
	return req, true, nil
}

// HandleScenarioCreate stores a new scenario. Registered hooks take the
// first snapshot.
// Route: POST /api/budget/scenarios
func HandleScenarioCreate(app *pocketbase.PocketBase, calc *services.BudgetCache) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		req, ok, err := bindScenarioRequest(e, calc.Engine())
		if !ok {
			return err
		}

		if existing, _ := app.FindFirstRecordByData("budget_scenarios", "name", req.Name); existing != nil {
			return ErrorJSON(e, http.StatusConflict, "A scenario with this name already exists")
		}

		col, err := app.FindCollectionByNameOrId("budget_scenarios")
		if err != nil {
			return internalError(e, "scenario_create", err)
		}

		rec := core.NewRecord(col)
		rec.Set("name", req.Name)
		rec.Set("description", req.Description)
		rec.Set("scenario", req.Scenario)
		if err := app.SaveWithContext(e.Request.Context(), rec); err != nil {
			if isDuplicateName(err) {
				return ErrorJSON(e, http.StatusConflict, "A scenario with this name already exists")
			}
			return internalError(e, "scenario_create", err)
		}

		zap.S().Infow("scenario created", "id", rec.Id, "name", req.Name)

		resp, err := scenarioResponse(rec)
		if err != nil {
			return internalError(e, "scenario_create", err)
		}
		return e.JSON(http.StatusCreated, resp)
	}
}

// HandleScenarioUpdate replaces a stored scenario. Registered hooks take a
// fresh snapshot.
// Route: PUT /api/budget/scenarios/{id}
func HandleScenarioUpdate(app *pocketbase.PocketBase, calc *services.BudgetCache) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("budget_scenarios", e.Request.PathValue("id"))
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Scenario not found")
		}

		req, ok, err := bindScenarioRequest(e, calc.Engine())
		if !ok {
			return err
		}

		if other, _ := app.FindFirstRecordByData("budget_scenarios", "name", req.Name); other != nil && other.Id != rec.Id {
			return ErrorJSON(e, http.StatusConflict, "A scenario with this name already exists")
		}

		rec.Set("name", req.Name)
		rec.Set("description", req.Description)
		rec.Set("scenario", req.Scenario)
		if err := app.SaveWithContext(e.Request.Context(), rec); err != nil {
			if isDuplicateName(err) {
				return ErrorJSON(e, http.StatusConflict, "A scenario with this name already exists")
			}
			return internalError(e, "scenario_update", err)
		}

		resp, err := scenarioResponse(rec)
		if err != nil {
			return internalError(e, "scenario_update", err)
		}
		return e.JSON(http.StatusOK, resp)
	}
}

// HandleScenarioDelete removes a stored scenario. Its snapshots are kept.
// Route: DELETE /api/budget/scenarios/{id}
func HandleScenarioDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("budget_scenarios", e.Request.PathValue("id"))
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Scenario not found")
		}
		if err := app.Delete(rec); err != nil {
			return internalError(e, "scenario_delete", err)
		}

		zap.S().Infow("scenario deleted", "id", rec.Id, "name", rec.GetString("name"))
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleScenarioSnapshot recomputes a stored scenario and stores the result
// as a new snapshot.
// Route: POST /api/budget/scenarios/{id}/snapshot
func HandleScenarioSnapshot(app *pocketbase.PocketBase, calc *services.BudgetCache) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("budget_scenarios", e.Request.PathValue("id"))
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Scenario not found")
		}

		snap, err := snapshotScenario(app, calc, rec, runIDFor(e.Request), time.Now().UTC())
		if err != nil {
			if isInvalidScenario(err) {
				return ValidationErrorJSON(e, err)
			}
			return internalError(e, "scenario_snapshot", err)
		}

		resp, err := snapshotResponse(snap)
		if err != nil {
			return internalError(e, "scenario_snapshot", err)
		}
		return e.JSON(http.StatusCreated, resp)
	}
}

// isDuplicateName reports whether a save failed on the unique scenario name
// index, which happens when a concurrent request stored the name first.
func isDuplicateName(err error) bool {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		var verr validation.Error
		if errors.As(verrs["name"], &verr) && verr.Code() == "validation_not_unique" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
