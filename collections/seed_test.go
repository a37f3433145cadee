package collections_test

import (
	"testing"

	"budgetengine/collections"
	"budgetengine/services"
	"budgetengine/testhelpers"
)

func TestSeed_CreatesScenarios(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	col, _ := app.FindCollectionByNameOrId("budget_scenarios")
	records, err := app.FindAllRecords(col)
	if err != nil {
		t.Fatalf("query scenarios error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(records))
	}

	names := map[string]bool{}
	for _, r := range records {
		names[r.GetString("name")] = true
	}
	for _, want := range []string{"Service Desk 8x5", "NOC 24x7"} {
		if !names[want] {
			t.Errorf("missing seeded scenario %q", want)
		}
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	col, _ := app.FindCollectionByNameOrId("budget_scenarios")
	records, _ := app.FindAllRecords(col)
	if len(records) != 2 {
		t.Errorf("expected 2 scenarios after idempotent seed, got %d", len(records))
	}
}

func TestSeed_ScenariosAreValid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	col, _ := app.FindCollectionByNameOrId("budget_scenarios")
	records, _ := app.FindAllRecords(col)
	eng := services.NewEngine(services.DefaultEngineOptions())

	for _, r := range records {
		var s services.Scenario
		if err := r.UnmarshalJSONField("scenario", &s); err != nil {
			t.Fatalf("scenario %q: unmarshal error: %v", r.GetString("name"), err)
		}
		s = eng.Prepare(s)
		if err := services.ValidateScenario(s); err != nil {
			t.Errorf("scenario %q failed validation: %v", s.Name, err)
		}
		b := eng.BuildBudget(s)
		if b.TotalPrice <= b.TotalCost {
			t.Errorf("scenario %q: price %.2f should exceed cost %.2f", s.Name, b.TotalPrice, b.TotalCost)
		}
		if len(b.Months) != s.ContractMonths {
			t.Errorf("scenario %q: %d months, want %d", s.Name, len(b.Months), s.ContractMonths)
		}
	}
}
