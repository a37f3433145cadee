package services

import (
	"math"
	"testing"
	"time"
)

func TestCompareBudgets(t *testing.T) {
	eng := newTestEngine()
	before := exampleScenario()
	after := exampleScenario()
	after.Roster = append(after.Roster, TeamMember{ID: "m2", MonthlySalary: 2000, MonthlyBenefits: 200})

	t0 := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	prev := Snapshot{ComputedAt: t0, Budget: eng.BuildBudget(before)}
	cur := Snapshot{ComputedAt: t0.Add(24 * time.Hour), Budget: eng.BuildBudget(after)}

	got := CompareBudgets(prev, cur)
	if !floatClose(got.TeamCost.Change, 2200) {
		t.Errorf("TeamCost.Change = %v, want 2200", got.TeamCost.Change)
	}
	if !floatClose(got.TeamCost.Percent, 40) {
		t.Errorf("TeamCost.Percent = %v, want 40", got.TeamCost.Percent)
	}
	if got.Headcount != [2]int{1, 2} {
		t.Errorf("Headcount = %v, want [1 2]", got.Headcount)
	}
	if math.Abs(got.MarginPoints) > 0.001 {
		t.Errorf("MarginPoints = %v, want 0 for the same margin policy", got.MarginPoints)
	}
	if !got.From.Equal(t0) {
		t.Errorf("From = %v, want %v", got.From, t0)
	}

	swapped := CompareBudgets(cur, prev)
	if swapped.TeamCost.Change != got.TeamCost.Change || !swapped.From.Equal(t0) {
		t.Errorf("comparison should be ordered by time, got %+v", swapped)
	}
}

func TestNewDelta_ZeroPrevious(t *testing.T) {
	d := newDelta(0, 150)
	if d.Change != 150 || d.Percent != 0 {
		t.Errorf("newDelta(0, 150) = %+v", d)
	}
}
