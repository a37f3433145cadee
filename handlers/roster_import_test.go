package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"budgetengine/services"
	"budgetengine/testhelpers"
)

func newUploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/budget/roster/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleRosterImport_CSV(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleRosterImport()

	csv := "id,role,salary,benefits,shift\n" +
		"sd-01,Analyst N1,3200,950,8x5\n" +
		"sd-02,Analyst N1,oops,950,8x5\n"
	req := newUploadRequest(t, "roster.csv", []byte(csv))
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result services.RosterImport
	decodeJSON(t, rec, &result)
	if result.TotalRows != 2 || result.ValidRows != 1 {
		t.Errorf("rows = %d/%d, want 1 valid of 2", result.ValidRows, result.TotalRows)
	}
	if len(result.Members) != 1 || result.Members[0].MonthlyCost() != 4150 {
		t.Errorf("unexpected members: %+v", result.Members)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 || result.Errors[0].Field != "salary" {
		t.Errorf("unexpected errors: %+v", result.Errors)
	}
}

func TestHandleRosterImport_UnsupportedFormat(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleRosterImport()

	req := newUploadRequest(t, "roster.txt", []byte("id\nx\n"))
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRosterImport_NoFile(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleRosterImport()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.WriteField("note", "nothing attached")
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/budget/roster/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRosterTemplateDownload_RoundTrips(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/budget/roster/template", nil)
	rec := httptest.NewRecorder()
	if err := HandleRosterTemplateDownload()(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// The template itself imports cleanly.
	upload := newUploadRequest(t, "Roster_Template.xlsx", rec.Body.Bytes())
	rec2 := httptest.NewRecorder()
	if err := HandleRosterImport()(newTestRequestEvent(app, upload, rec2)); err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	var result services.RosterImport
	decodeJSON(t, rec2, &result)
	if result.ValidRows != 1 || len(result.Errors) != 0 {
		t.Errorf("template should import one clean row, got %+v", result)
	}
}

func TestHandleRosterErrorReport(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := newJSONRequest(t, http.MethodPost, "/api/budget/roster/errors", []services.RowError{
		{Row: 3, Field: "salary", Message: "salary must be a number"},
	})
	rec := httptest.NewRecorder()
	if err := HandleRosterErrorReport()(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid xlsx: %v", err)
	}
	defer f.Close()
	msg, _ := f.GetCellValue("Errors", "C2")
	if msg != "salary must be a number" {
		t.Errorf("C2 = %q", msg)
	}
}
