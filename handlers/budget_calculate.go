package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/services"
)

// CalculateResponse is returned by the calculate endpoint.
type CalculateResponse struct {
	Scenario string                      `json:"scenario"`
	CacheHit bool                        `json:"cache_hit"`
	Budget   services.ConsolidatedBudget `json:"budget"`
}

// decodeScenario reads, defaults and validates a scenario from the request
// body. On failure the error response has already been written and ok is
// false.
func decodeScenario(e *core.RequestEvent, eng services.Engine) (s services.Scenario, ok bool, err error) {
	s, err = services.LoadScenarioJSON(e.Request.Body)
	if err != nil {
		return s, false, ErrorJSON(e, http.StatusBadRequest, "Invalid scenario JSON: "+err.Error())
	}
	s = eng.Prepare(s)
	if verr := services.ValidateScenario(s); verr != nil {
		return s, false, ValidationErrorJSON(e, verr)
	}
	return s, true, nil
}

// HandleBudgetCalculate validates the posted scenario and returns its
// consolidated budget.
// Route: POST /api/budget/calculate
func HandleBudgetCalculate(calc *services.BudgetCache) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, ok, err := decodeScenario(e, calc.Engine())
		if !ok {
			return err
		}

		budget, hit, err := calc.Calculate(s)
		if err != nil {
			return internalError(e, "budget_calculate", err)
		}

		zap.S().Debugw("budget calculated",
			"scenario", s.Name,
			"cache_hit", hit,
			"total_price", budget.TotalPrice,
			"run_id", GetRunID(e.Request),
		)

		return e.JSON(http.StatusOK, CalculateResponse{
			Scenario: s.Name,
			CacheHit: hit,
			Budget:   budget,
		})
	}
}
