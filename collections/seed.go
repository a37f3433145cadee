package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetengine/services"
)

type scenarioDef struct {
	description string
	scenario    services.Scenario
}

var seedScenarios = []scenarioDef{
	{
		description: "Business-hours service desk, two analysts and a coordinator",
		scenario: services.Scenario{
			Name: "Service Desk 8x5",
			Roster: []services.TeamMember{
				{ID: "sd-01", Role: "Service Desk N1", MonthlySalary: 3200, MonthlyBenefits: 950, Shift: "8x5"},
				{ID: "sd-02", Role: "Service Desk N1", MonthlySalary: 3200, MonthlyBenefits: 950, Shift: "8x5"},
				{ID: "sd-03", Role: "Coordinator", MonthlySalary: 6500, MonthlyBenefits: 1800, Shift: "8x5"},
			},
			OtherCosts: []services.OtherCostItem{
				{Category: services.CategoryLicense, Description: "ITSM seats", Quantity: 3, UnitCost: 120},
				{Category: services.CategoryInfrastructure, Description: "Workstations", Quantity: 3, UnitCost: 180},
				{Category: services.CategoryTraining, Description: "Onboarding", Quantity: 1, UnitCost: 1500, OneTime: true},
			},
			Taxes: services.TaxConfiguration{Rates: []services.TaxRate{
				{Name: "PIS", Percent: 1.65},
				{Name: "COFINS", Percent: 7.6},
				{Name: "ISS", Percent: 5},
			}},
			Margin: services.MarginConfiguration{
				Type:           services.MarginPercentOfCost,
				Value:          20,
				MinimumPercent: 10,
				TargetPercent:  18,
				MaximumPercent: 35,
			},
			ContractMonths: 12,
		},
	},
	{
		description: "Round-the-clock network operations center on 12x36 rotation",
		scenario: services.Scenario{
			Name: "NOC 24x7",
			Roster: []services.TeamMember{
				{ID: "noc-01", Role: "NOC Analyst", MonthlySalary: 4200, MonthlyBenefits: 1300, Shift: "12x36"},
				{ID: "noc-02", Role: "NOC Analyst", MonthlySalary: 4200, MonthlyBenefits: 1300, Shift: "12x36"},
				{ID: "noc-03", Role: "NOC Analyst", MonthlySalary: 4200, MonthlyBenefits: 1300, Shift: "12x36"},
				{ID: "noc-04", Role: "NOC Analyst", MonthlySalary: 4200, MonthlyBenefits: 1300, Shift: "12x36"},
				{ID: "noc-05", Role: "NOC Lead", MonthlySalary: 7800, MonthlyBenefits: 2100, Shift: "8x5"},
			},
			Schedule: []services.ScheduleEntry{
				{MemberID: "noc-01", ShiftCode: "12x36"},
				{MemberID: "noc-02", ShiftCode: "12x36"},
				{MemberID: "noc-03", ShiftCode: "12x36"},
				{MemberID: "noc-04", ShiftCode: "12x36"},
				{MemberID: "noc-05", StartHour: 9, EndHour: 13},
			},
			Fractional: true,
			OtherCosts: []services.OtherCostItem{
				{Category: services.CategoryFacility, Description: "NOC room", Quantity: 1, UnitCost: 2500},
				{Category: services.CategoryLicense, Description: "Monitoring platform", Quantity: 1, UnitCost: 1800},
				{Category: services.CategoryContingency, Quantity: 1, UnitCost: 600},
			},
			Taxes: services.TaxConfiguration{Rates: []services.TaxRate{
				{Name: "PIS", Percent: 1.65},
				{Name: "COFINS", Percent: 7.6},
			}},
			Margin: services.MarginConfiguration{
				Type:          services.MarginFixedAmount,
				Value:         9000,
				TargetPercent: 15,
			},
			ContractMonths: 24,
			StartMonth:     1,
			StartYear:      2026,
		},
	},
}

// Seed inserts the demo scenarios when budget_scenarios is empty.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if scenarios already exist ─────────────────
	col, err := app.FindCollectionByNameOrId("budget_scenarios")
	if err != nil {
		return fmt.Errorf("seed: could not find budget_scenarios collection: %w", err)
	}
	existing, err := app.FindAllRecords(col)
	if err != nil {
		return fmt.Errorf("seed: could not query budget_scenarios: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	zap.S().Info("seed: budget_scenarios collection is empty, inserting demo scenarios")

	for _, def := range seedScenarios {
		record := core.NewRecord(col)
		record.Set("name", def.scenario.Name)
		record.Set("description", def.description)
		record.Set("scenario", def.scenario)
		if err := app.Save(record); err != nil {
			return fmt.Errorf("seed: could not save scenario %q: %w", def.scenario.Name, err)
		}
		zap.S().Infow("seed: created scenario", "name", def.scenario.Name, "id", record.Id)
	}

	return nil
}
