package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/collections"
	"budgetengine/commands"
	"budgetengine/config"
	"budgetengine/handlers"
	"budgetengine/logging"
	"budgetengine/services"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal(err)
	}

	flush, err := logging.Install(cfg.Log.Mode)
	if err != nil {
		log.Fatal(err)
	}
	defer flush()

	calc, err := services.NewBudgetCache(services.NewEngine(cfg.EngineOptions()), cfg.Cache.Size)
	if err != nil {
		zap.S().Fatalw("budget cache", "error", err)
	}

	app := pocketbase.New()
	app.RootCmd.AddCommand(commands.NewBudgetCommand())

	handlers.RegisterBudgetHooks(app, calc)

	// Create collections, seed data and backfill on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			zap.S().Warnw("seed data failed", "error", err)
		}
		if err := collections.BackfillSnapshotTotals(app); err != nil {
			zap.S().Warnw("snapshot backfill failed", "error", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		api := se.Router.Group("/api/budget")
		api.BindFunc(handlers.RunIDMiddleware())

		// ── Calculation ─────────────────────────────────────────
		api.POST("/calculate", handlers.HandleBudgetCalculate(calc))
		api.POST("/batch", handlers.HandleBudgetBatch(calc, cfg.Engine.BatchConcurrency))

		// ── Scenarios ───────────────────────────────────────────
		api.GET("/scenarios", handlers.HandleScenarioList(app))
		api.POST("/scenarios", handlers.HandleScenarioCreate(app, calc))
		api.POST("/scenarios/{id}/snapshot", handlers.HandleScenarioSnapshot(app, calc))
		api.GET("/scenarios/{id}", handlers.HandleScenarioGet(app))
		api.PUT("/scenarios/{id}", handlers.HandleScenarioUpdate(app, calc))
		api.DELETE("/scenarios/{id}", handlers.HandleScenarioDelete(app))

		// ── Snapshots ───────────────────────────────────────────
		api.GET("/snapshots", handlers.HandleSnapshotList(app))
		api.GET("/snapshots/{id}/compare/{otherId}", handlers.HandleSnapshotCompare(app))
		api.GET("/snapshots/{id}/export/excel", handlers.HandleSnapshotExportExcel(app, cfg.CurrencyFormat()))
		api.GET("/snapshots/{id}", handlers.HandleSnapshotGet(app))

		// ── Roster import ───────────────────────────────────────
		api.GET("/roster/template", handlers.HandleRosterTemplateDownload())
		api.POST("/roster/import", handlers.HandleRosterImport())
		api.POST("/roster/errors", handlers.HandleRosterErrorReport())

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/api/budget/scenarios")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
