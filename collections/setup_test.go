package collections_test

import (
	"testing"

	"budgetengine/collections"
	"budgetengine/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

// expectedCollections is the full list of collections that Setup() must create.
var expectedCollections = []string{
	"budget_scenarios",
	"budget_snapshots",
}

func TestSetup_AllCollectionsExist(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q not found after Setup(): %v", name, err)
			continue
		}
		if col.Name != name {
			t.Errorf("expected collection name %q, got %q", name, col.Name)
		}
	}
}

func TestSetup_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t) // Setup() already called once via NewTestApp

	ids := make(map[string]string)
	for _, name := range expectedCollections {
		col, _ := app.FindCollectionByNameOrId(name)
		ids[name] = col.Id
	}

	collections.Setup(app)

	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q missing after second Setup(): %v", name, err)
			continue
		}
		if col.Id != ids[name] {
			t.Errorf("collection %q id changed after second Setup(): %s -> %s", name, ids[name], col.Id)
		}
	}
}

func TestSetup_ScenariosFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId("budget_scenarios")

	for _, f := range []string{"name", "description", "scenario", "created", "updated"} {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("budget_scenarios: missing field %q", f)
		}
	}
	if _, ok := col.Fields.GetByName("scenario").(*core.JSONField); !ok {
		t.Error("budget_scenarios.scenario is not a JSONField")
	}
}

func TestSetup_SnapshotsFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId("budget_snapshots")

	fields := []string{
		"scenario", "scenario_name", "run_id", "computed_at", "input", "result",
		"total_price", "total_cost", "profit", "margin_percent", "created",
	}
	for _, f := range fields {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("budget_snapshots: missing field %q", f)
		}
	}

	scenarioField := col.Fields.GetByName("scenario")
	if rf, ok := scenarioField.(*core.RelationField); ok {
		if rf.MaxSelect != 1 {
			t.Errorf("budget_snapshots.scenario: expected MaxSelect=1, got %d", rf.MaxSelect)
		}
		if rf.CascadeDelete {
			t.Error("budget_snapshots.scenario: snapshots must survive scenario deletion")
		}
	} else {
		t.Error("budget_snapshots.scenario is not a RelationField")
	}

	if _, ok := col.Fields.GetByName("computed_at").(*core.DateField); !ok {
		t.Error("budget_snapshots.computed_at is not a DateField")
	}
}
