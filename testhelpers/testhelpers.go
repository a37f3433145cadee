// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"budgetengine/collections"
	"budgetengine/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// SampleScenario returns a small valid scenario: one analyst, one license,
// a 10% tax and a 20% margin over twelve months.
func SampleScenario(name string) services.Scenario {
	return services.Scenario{
		Name: name,
		Roster: []services.TeamMember{
			{ID: "m1", Role: "Analyst N1", MonthlySalary: 5000, MonthlyBenefits: 500},
		},
		OtherCosts: []services.OtherCostItem{
			{Category: services.CategoryLicense, Quantity: 1, UnitCost: 300},
		},
		Taxes:          services.TaxConfiguration{Rates: []services.TaxRate{{Name: "federal", Percent: 10}}},
		TaxBase:        services.TaxBaseCost,
		Allocation:     services.AllocationSteady,
		Margin:         services.MarginConfiguration{Type: services.MarginPercentOfCost, Value: 20},
		ContractMonths: 12,
	}
}

// CreateTestScenario stores s under its name and returns the record.
func CreateTestScenario(t *testing.T, app *pocketbase.PocketBase, s services.Scenario) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("budget_scenarios")
	if err != nil {
		t.Fatalf("failed to find budget_scenarios collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", s.Name)
	record.Set("description", "test scenario")
	record.Set("scenario", s)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test scenario: %v", err)
	}

	return record
}

// CreateTestSnapshot computes s with the default engine and stores the
// result as a snapshot taken at computedAt.
func CreateTestSnapshot(t *testing.T, app *pocketbase.PocketBase, scenarioID string, s services.Scenario, computedAt time.Time) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("budget_snapshots")
	if err != nil {
		t.Fatalf("failed to find budget_snapshots collection: %v", err)
	}

	b := services.NewEngine(services.DefaultEngineOptions()).BuildBudget(s)

	record := core.NewRecord(col)
	record.Set("scenario", scenarioID)
	record.Set("scenario_name", s.Name)
	record.Set("run_id", "test-run")
	record.Set("computed_at", computedAt)
	record.Set("input", s)
	record.Set("result", b)
	record.Set("total_price", b.TotalPrice)
	record.Set("total_cost", b.TotalCost)
	record.Set("profit", b.Profit)
	record.Set("margin_percent", b.ProfitMarginPercent)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test snapshot: %v", err)
	}

	return record
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
