package services

import "time"

// Snapshot is a budget retained for trend comparison. ComputedAt is set by
// whoever stores it, never by the engine.
type Snapshot struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	RunID      string             `json:"run_id,omitempty"`
	ComputedAt time.Time          `json:"computed_at"`
	Budget     ConsolidatedBudget `json:"budget"`
}

// Delta is the movement of one figure between two budgets.
type Delta struct {
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Change   float64 `json:"change"`
	// Percent is the change relative to Previous, 0 when Previous is 0.
	Percent float64 `json:"percent"`
}

func newDelta(prev, cur float64) Delta {
	d := Delta{Previous: prev, Current: cur, Change: cur - prev}
	if prev != 0 {
		d.Percent = d.Change / prev * 100
	}
	return d
}

// BudgetComparison lists the deltas between an earlier and a later budget.
type BudgetComparison struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	TeamCost     Delta     `json:"team_cost"`
	OtherCost    Delta     `json:"other_cost"`
	Taxes        Delta     `json:"taxes"`
	TotalCost    Delta     `json:"total_cost"`
	TotalPrice   Delta     `json:"total_price"`
	Profit       Delta     `json:"profit"`
	MarginPoints float64   `json:"margin_points"`
	Headcount    [2]int    `json:"headcount"`
}

// CompareBudgets reports how cur moved relative to prev. The two snapshots
// are ordered by ComputedAt first so the result always runs forward in time.
func CompareBudgets(prev, cur Snapshot) BudgetComparison {
	if cur.ComputedAt.Before(prev.ComputedAt) {
		prev, cur = cur, prev
	}
	p, c := prev.Budget, cur.Budget
	return BudgetComparison{
		From:         prev.ComputedAt,
		To:           cur.ComputedAt,
		TeamCost:     newDelta(p.Team.Total, c.Team.Total),
		OtherCost:    newDelta(p.Other.Total, c.Other.Total),
		Taxes:        newDelta(p.Taxes.Total, c.Taxes.Total),
		TotalCost:    newDelta(p.TotalCost, c.TotalCost),
		TotalPrice:   newDelta(p.TotalPrice, c.TotalPrice),
		Profit:       newDelta(p.Profit, c.Profit),
		MarginPoints: c.ProfitMarginPercent - p.ProfitMarginPercent,
		Headcount:    [2]int{len(p.Team.Breakdown), len(c.Team.Breakdown)},
	}
}
