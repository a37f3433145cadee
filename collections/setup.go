package collections

import (
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// Setup programmatically creates/ensures the budget_scenarios and
// budget_snapshots collections exist.
func Setup(app *pocketbase.PocketBase) {
	scenarios := ensureCollection(app, "budget_scenarios", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true, Max: 200})
		c.Fields.Add(&core.TextField{Name: "description", Required: false})
		c.Fields.Add(&core.JSONField{Name: "scenario", Required: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_budget_scenarios_name", true, "name", "")
	})

	ensureCollection(app, "budget_snapshots", func(c *core.Collection) {
		// Snapshots outlive the scenario they were taken from.
		c.Fields.Add(&core.RelationField{
			Name:          "scenario",
			Required:      false,
			CollectionId:  scenarios.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "scenario_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "run_id", Required: false})
		c.Fields.Add(&core.DateField{Name: "computed_at", Required: true})
		c.Fields.Add(&core.JSONField{Name: "input", Required: true})
		c.Fields.Add(&core.JSONField{Name: "result", Required: true})
		c.Fields.Add(&core.NumberField{Name: "total_price", Required: false})
		c.Fields.Add(&core.NumberField{Name: "total_cost", Required: false})
		c.Fields.Add(&core.NumberField{Name: "profit", Required: false})
		c.Fields.Add(&core.NumberField{Name: "margin_percent", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.AddIndex("idx_budget_snapshots_scenario_name", false, "scenario_name", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		zap.S().Debugw("collection exists, skipping creation", "collection", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		zap.S().Fatalw("failed to create collection", "collection", name, "error", err)
	}

	zap.S().Infow("created collection", "collection", name, "id", collection.Id)
	return collection
}
