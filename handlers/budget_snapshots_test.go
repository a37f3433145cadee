package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetengine/services"
	"budgetengine/testhelpers"
)

func TestHandleSnapshotList_FilterAndOrder(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	a := testhelpers.SampleScenario("Alpha")
	b := testhelpers.SampleScenario("Beta")
	older := testhelpers.CreateTestSnapshot(t, app, "", a, mustTime(t, "2026-01-01T00:00:00Z"))
	newer := testhelpers.CreateTestSnapshot(t, app, "", a, mustTime(t, "2026-03-01T00:00:00Z"))
	testhelpers.CreateTestSnapshot(t, app, "", b, mustTime(t, "2026-02-01T00:00:00Z"))
	handler := HandleSnapshotList(app)

	tests := []struct {
		name    string
		target  string
		wantIDs []string
		wantLen int
	}{
		{"all", "/api/budget/snapshots", nil, 3},
		{"by scenario", "/api/budget/snapshots?scenario=Alpha", []string{newer.Id, older.Id}, 2},
		{"unknown scenario", "/api/budget/snapshots?scenario=Gamma", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(app, req, rec)

			if err := handler(e); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			var resp struct {
				Items []SnapshotSummary `json:"items"`
			}
			decodeJSON(t, rec, &resp)
			if len(resp.Items) != tt.wantLen {
				t.Fatalf("expected %d snapshots, got %d", tt.wantLen, len(resp.Items))
			}
			for i, id := range tt.wantIDs {
				if resp.Items[i].ID != id {
					t.Errorf("item %d = %s, want %s (newest first)", i, resp.Items[i].ID, id)
				}
			}
		})
	}
}

func TestHandleSnapshotGet(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	s := testhelpers.SampleScenario("Detail")
	snap := testhelpers.CreateTestSnapshot(t, app, "", s, mustTime(t, "2026-05-01T12:00:00Z"))
	handler := HandleSnapshotGet(app)

	req := httptest.NewRequest(http.MethodGet, "/api/budget/snapshots/"+snap.Id, nil)
	req.SetPathValue("id", snap.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp SnapshotResponse
	decodeJSON(t, rec, &resp)
	if resp.Input.Name != "Detail" || resp.Input.ContractMonths != 12 {
		t.Errorf("input not returned: %+v", resp.Input)
	}
	if math.Abs(resp.Result.TotalPrice-7975) > 0.001 {
		t.Errorf("result total_price = %.2f, want 7975", resp.Result.TotalPrice)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/budget/snapshots/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")
	rec = httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleSnapshotCompare(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	before := testhelpers.SampleScenario("Trend")
	after := testhelpers.SampleScenario("Trend")
	after.Roster = append(after.Roster, services.TeamMember{ID: "m2", Role: "Analyst N2", MonthlySalary: 2000})

	first := testhelpers.CreateTestSnapshot(t, app, "", before, mustTime(t, "2026-01-01T00:00:00Z"))
	second := testhelpers.CreateTestSnapshot(t, app, "", after, mustTime(t, "2026-02-01T00:00:00Z"))
	handler := HandleSnapshotCompare(app)

	// Path order is reversed on purpose; the older snapshot is the baseline.
	req := httptest.NewRequest(http.MethodGet, "/api/budget/snapshots/"+second.Id+"/compare/"+first.Id, nil)
	req.SetPathValue("id", second.Id)
	req.SetPathValue("otherId", first.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cmp services.BudgetComparison
	decodeJSON(t, rec, &cmp)
	if math.Abs(cmp.TeamCost.Change-2000) > 0.001 {
		t.Errorf("team cost change = %.2f, want 2000", cmp.TeamCost.Change)
	}
	if cmp.Headcount != [2]int{1, 2} {
		t.Errorf("headcount = %v, want [1 2]", cmp.Headcount)
	}
	if cmp.TotalPrice.Change <= 0 {
		t.Error("adding a member should raise the price")
	}
}

func TestHandleSnapshotCompare_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	snap := testhelpers.CreateTestSnapshot(t, app, "", testhelpers.SampleScenario("Lonely"), mustTime(t, "2026-01-01T00:00:00Z"))
	handler := HandleSnapshotCompare(app)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", snap.Id)
	req.SetPathValue("otherId", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
