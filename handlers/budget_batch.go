package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/services"
)

// maxBatchScenarios bounds a single batch request.
const maxBatchScenarios = 100

// BatchRequest is the body of a batch calculation.
type BatchRequest struct {
	Scenarios []services.Scenario `json:"scenarios"`
}

// BatchResponse lists results in request order.
type BatchResponse struct {
	Results []services.BatchResult `json:"results"`
}

// HandleBudgetBatch computes many scenarios concurrently with at most limit
// in flight.
// Route: POST /api/budget/batch
func HandleBudgetBatch(calc *services.BudgetCache, limit int) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req BatchRequest
		if err := e.BindBody(&req); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid request body")
		}
		if len(req.Scenarios) == 0 {
			return ErrorJSON(e, http.StatusBadRequest, "No scenarios provided")
		}
		if len(req.Scenarios) > maxBatchScenarios {
			return ErrorJSON(e, http.StatusBadRequest,
				fmt.Sprintf("At most %d scenarios per batch", maxBatchScenarios))
		}

		eng := calc.Engine()
		details := make(map[string]any)
		for i, s := range req.Scenarios {
			s = eng.Prepare(s)
			req.Scenarios[i] = s
			if err := services.ValidateScenario(s); err != nil {
				details[strconv.Itoa(i)] = validationDetails(err)
			}
		}
		if len(details) > 0 {
			return e.JSON(http.StatusBadRequest, errorBody{Error: "invalid scenarios", Details: details})
		}

		results, err := services.CalculateBatch(e.Request.Context(), calc, req.Scenarios, limit)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				zap.S().Warnw("budget batch cancelled", "count", len(req.Scenarios), "error", err)
				return ErrorJSON(e, http.StatusServiceUnavailable, "Batch cancelled")
			}
			return internalError(e, "budget_batch", err)
		}

		return e.JSON(http.StatusOK, BatchResponse{Results: results})
	}
}
