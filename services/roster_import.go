package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowError is a single field-level problem on one uploaded row.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RosterImport is the outcome of parsing an uploaded roster file.
type RosterImport struct {
	TotalRows int          `json:"total_rows"`
	ValidRows int          `json:"valid_rows"`
	Members   []TeamMember `json:"members"`
	Errors    []RowError   `json:"errors"`
	Ignored   []string     `json:"ignored_columns,omitempty"`
}

// rosterColumns maps accepted header labels to member fields.
var rosterColumns = map[string]string{
	"id":               "id",
	"member id":        "id",
	"role":             "role",
	"position":         "role",
	"salary":           "salary",
	"monthly salary":   "salary",
	"benefits":         "benefits",
	"monthly benefits": "benefits",
	"shift":            "shift",
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// ParseRoster reads a .csv or .xlsx roster. Rows with errors are reported
// and left out of Members; the rest are returned in file order.
func ParseRoster(fileName string, file io.Reader) (*RosterImport, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	result := &RosterImport{TotalRows: len(dataRows)}
	keys := make([]string, len(headers))
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		if key, ok := rosterColumns[norm]; ok {
			keys[i] = key
		} else {
			result.Ignored = append(result.Ignored, h)
		}
	}

	seen := make(map[string]int)
	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		values := make(map[string]string)
		for colIdx, key := range keys {
			if key == "" || colIdx >= len(row) {
				continue
			}
			values[key] = strings.TrimSpace(row[colIdx])
		}

		var rowErrors []RowError
		m := TeamMember{
			ID:    values["id"],
			Role:  values["role"],
			Shift: values["shift"],
		}
		if m.ID == "" {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Field: "id", Message: "id is required"})
		} else if first, dup := seen[m.ID]; dup {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Field: "id",
				Message: fmt.Sprintf("duplicate id %q (first seen on row %d)", m.ID, first)})
		}
		m.MonthlySalary, rowErrors = parseAmount(values["salary"], "salary", rowNum, rowErrors)
		m.MonthlyBenefits, rowErrors = parseAmount(values["benefits"], "benefits", rowNum, rowErrors)

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			continue
		}
		seen[m.ID] = rowNum
		result.Members = append(result.Members, m)
		result.ValidRows++
	}
	return result, nil
}

// parseAmount accepts plain decimals with an optional thousands comma.
func parseAmount(raw, field string, row int, errs []RowError) (float64, []RowError) {
	if raw == "" {
		return 0, errs
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, append(errs, RowError{Row: row, Field: field, Message: fmt.Sprintf("%s must be a number", field)})
	}
	if v < 0 {
		return 0, append(errs, RowError{Row: row, Field: field, Message: fmt.Sprintf("%s must not be negative", field)})
	}
	return v, errs
}

// rosterTemplateHeaders is the header row of the downloadable template.
var rosterTemplateHeaders = []string{"ID", "Role", "Monthly Salary", "Monthly Benefits", "Shift"}

// GenerateRosterTemplate returns an empty roster workbook with a header row
// and one sample line.
func GenerateRosterTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Roster"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	cols := []string{"A", "B", "C", "D", "E"}
	for i, h := range rosterTemplateHeaders {
		f.SetCellValue(sheet, cols[i]+"1", h)
		f.SetColWidth(sheet, cols[i], cols[i], 18)
	}
	f.SetCellStyle(sheet, "A1", "E1", headerStyle)
	for i, v := range []any{"sd-01", "Service Desk N1", 3200.0, 950.0, "8x5"} {
		f.SetCellValue(sheet, cols[i]+"2", v)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write roster template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateRosterErrorReport lists row errors in a workbook.
func GenerateRosterErrorReport(errors []RowError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, sanitizeExcelCell(e.Field))
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
