package handlers

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"budgetengine/services"
)

// ScenarioResponse is the JSON view of a stored scenario.
type ScenarioResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Scenario    services.Scenario `json:"scenario"`
	Created     string            `json:"created"`
	Updated     string            `json:"updated"`
}

// SnapshotSummary is a snapshot without its stored input and result.
type SnapshotSummary struct {
	ID            string  `json:"id"`
	ScenarioID    string  `json:"scenario_id"`
	ScenarioName  string  `json:"scenario_name"`
	RunID         string  `json:"run_id"`
	ComputedAt    string  `json:"computed_at"`
	TotalPrice    float64 `json:"total_price"`
	TotalCost     float64 `json:"total_cost"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"margin_percent"`
}

// SnapshotResponse is the full JSON view of a snapshot.
type SnapshotResponse struct {
	SnapshotSummary
	Input  services.Scenario           `json:"input"`
	Result services.ConsolidatedBudget `json:"result"`
}

func scenarioFromRecord(rec *core.Record) (services.Scenario, error) {
	var s services.Scenario
	if err := rec.UnmarshalJSONField("scenario", &s); err != nil {
		return s, fmt.Errorf("decode scenario %s: %w", rec.Id, err)
	}
	s.Name = rec.GetString("name")
	return s, nil
}

func scenarioResponse(rec *core.Record) (ScenarioResponse, error) {
	s, err := scenarioFromRecord(rec)
	if err != nil {
		return ScenarioResponse{}, err
	}
	return ScenarioResponse{
		ID:          rec.Id,
		Name:        rec.GetString("name"),
		Description: rec.GetString("description"),
		Scenario:    s,
		Created:     rec.GetDateTime("created").String(),
		Updated:     rec.GetDateTime("updated").String(),
	}, nil
}

func snapshotSummary(rec *core.Record) SnapshotSummary {
	return SnapshotSummary{
		ID:            rec.Id,
		ScenarioID:    rec.GetString("scenario"),
		ScenarioName:  rec.GetString("scenario_name"),
		RunID:         rec.GetString("run_id"),
		ComputedAt:    rec.GetDateTime("computed_at").String(),
		TotalPrice:    rec.GetFloat("total_price"),
		TotalCost:     rec.GetFloat("total_cost"),
		Profit:        rec.GetFloat("profit"),
		MarginPercent: rec.GetFloat("margin_percent"),
	}
}

func snapshotResponse(rec *core.Record) (SnapshotResponse, error) {
	resp := SnapshotResponse{SnapshotSummary: snapshotSummary(rec)}
	if err := rec.UnmarshalJSONField("input", &resp.Input); err != nil {
		return resp, fmt.Errorf("decode snapshot input %s: %w", rec.Id, err)
	}
	if err := rec.UnmarshalJSONField("result", &resp.Result); err != nil {
		return resp, fmt.Errorf("decode snapshot result %s: %w", rec.Id, err)
	}
	return resp, nil
}

// snapshotFromRecord loads the parts of a stored snapshot that trend
// comparison needs.
func snapshotFromRecord(rec *core.Record) (services.Snapshot, error) {
	snap := services.Snapshot{
		ID:         rec.Id,
		Scenario:   rec.GetString("scenario_name"),
		RunID:      rec.GetString("run_id"),
		ComputedAt: rec.GetDateTime("computed_at").Time(),
	}
	if err := rec.UnmarshalJSONField("result", &snap.Budget); err != nil {
		return snap, fmt.Errorf("decode snapshot result %s: %w", rec.Id, err)
	}
	return snap, nil
}

// saveSnapshot stores budget as a new immutable snapshot of input. scenarioID
// may be empty for ad-hoc calculations.
func saveSnapshot(app core.App, scenarioID, runID string, input services.Scenario, budget services.ConsolidatedBudget, computedAt time.Time) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId("budget_snapshots")
	if err != nil {
		return nil, fmt.Errorf("find budget_snapshots collection: %w", err)
	}

	name := input.Name
	if name == "" {
		name = "ad-hoc"
	}

	rec := core.NewRecord(col)
	rec.Set("scenario", scenarioID)
	rec.Set("scenario_name", name)
	rec.Set("run_id", runID)
	rec.Set("computed_at", computedAt)
	rec.Set("input", input)
	rec.Set("result", budget)
	rec.Set("total_price", budget.TotalPrice)
	rec.Set("total_cost", budget.TotalCost)
	rec.Set("profit", budget.Profit)
	rec.Set("margin_percent", budget.ProfitMarginPercent)

	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save snapshot for %q: %w", name, err)
	}
	return rec, nil
}
