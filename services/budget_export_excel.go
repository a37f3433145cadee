package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BudgetExportData holds everything the budget workbook shows.
type BudgetExportData struct {
	Title      string
	Scenario   string
	ComputedAt string
	Currency   Currency
	Budget     ConsolidatedBudget
}

// budgetSheet writes rows top to bottom on one sheet.
type budgetSheet struct {
	f      *excelize.File
	name   string
	row    int
	styles budgetStyles
}

type budgetStyles struct {
	title, subtitle, header, cell, money, label, total int
}

// GenerateBudgetExcel renders a consolidated budget as an xlsx workbook and
// returns the file contents.
func GenerateBudgetExcel(data BudgetExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := data.Title
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Budget"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	widths := map[string]float64{"A": 28, "B": 16, "C": 16, "D": 16, "E": 16, "F": 12, "G": 12}
	for col, w := range widths {
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	styles, err := newBudgetStyles(f, data.Currency)
	if err != nil {
		return nil, err
	}
	s := &budgetSheet{f: f, name: sheetName, row: 1, styles: styles}
	b := data.Budget

	// ── Header ──────────────────────────────────────────────────────────
	s.text("A", sanitizeExcelCell(data.Title), styles.title)
	s.row++
	if data.Scenario != "" {
		s.text("A", "Scenario: "+sanitizeExcelCell(data.Scenario), styles.subtitle)
		s.row++
	}
	if data.ComputedAt != "" {
		s.text("A", "Computed: "+data.ComputedAt, styles.subtitle)
		s.row++
	}
	s.row++

	// ── Summary ─────────────────────────────────────────────────────────
	s.headers("Summary", "Amount")
	s.moneyRow("Team cost", b.Team.Total)
	s.moneyRow("Other costs", b.Other.Total)
	s.moneyRow("Taxes", b.Taxes.Total)
	s.moneyRow("Total cost", b.TotalCost)
	s.moneyRow("Total price", b.TotalPrice)
	s.moneyRow("Profit", b.Profit)
	s.text("A", "Profit margin", styles.label)
	s.text("B", FormatPercent(b.ProfitMarginPercent), styles.cell)
	s.row += 2

	// ── Team ────────────────────────────────────────────────────────────
	if len(b.Team.Breakdown) > 0 {
		s.headers("Member", "Role", "Monthly cost", "Fraction", "Allocated")
		for _, m := range b.Team.Breakdown {
			s.text("A", sanitizeExcelCell(m.MemberID), styles.cell)
			s.text("B", sanitizeExcelCell(m.Role), styles.cell)
			s.number("C", m.MonthlyCost, styles.money)
			s.number("D", m.Fraction, styles.cell)
			s.number("E", m.AllocatedCost, styles.money)
			s.row++
		}
		s.row++
	}

	// ── Other costs ─────────────────────────────────────────────────────
	if len(b.Other.ByCategory) > 0 {
		s.headers("Category", "Amount")
		for _, c := range b.Other.SortedCategories() {
			s.moneyRow(string(c), b.Other.ByCategory[c])
		}
		if b.Other.OneTime > 0 {
			s.moneyRow("of which one-time", b.Other.OneTime)
		}
		s.row++
	}

	// ── Taxes ───────────────────────────────────────────────────────────
	if len(b.Taxes.Breakdown) > 0 {
		s.headers("Tax", "Rate", "Amount")
		for _, t := range b.Taxes.Breakdown {
			s.text("A", sanitizeExcelCell(t.Name), styles.cell)
			s.text("B", FormatPercent(t.Percent), styles.cell)
			s.number("C", t.Amount, styles.money)
			s.row++
		}
		s.text("A", "Taxable base", styles.label)
		s.number("C", b.Taxes.Base, styles.total)
		s.row += 2
	}

	// ── Monthly ─────────────────────────────────────────────────────────
	s.headers("Month", "Revenue", "Cost", "Profit", "Margin", "Year", "Index")
	for _, m := range b.Months {
		s.text("A", fmt.Sprintf("%02d/%d", m.Month, m.Year), styles.cell)
		s.number("B", m.Revenue, styles.money)
		s.number("C", m.Cost, styles.money)
		s.number("D", m.Profit, styles.money)
		s.text("E", FormatPercent(m.MarginPercent), styles.cell)
		s.number("F", float64(m.Year), styles.cell)
		s.number("G", float64(m.Index), styles.cell)
		s.row++
	}

	// ── Warnings ────────────────────────────────────────────────────────
	if len(b.Warnings) > 0 {
		s.row++
		s.headers("Warning", "Detail")
		for _, w := range b.Warnings {
			s.text("A", w.Code, styles.cell)
			s.text("B", sanitizeExcelCell(w.Message), styles.cell)
			s.row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *budgetSheet) cell(col string) string {
	return fmt.Sprintf("%s%d", col, s.row)
}

func (s *budgetSheet) text(col, value string, style int) {
	c := s.cell(col)
	s.f.SetCellValue(s.name, c, value)
	s.f.SetCellStyle(s.name, c, c, style)
}

func (s *budgetSheet) number(col string, value float64, style int) {
	c := s.cell(col)
	s.f.SetCellFloat(s.name, c, value, 2, 64)
	s.f.SetCellStyle(s.name, c, c, style)
}

func (s *budgetSheet) headers(labels ...string) {
	cols := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i, l := range labels {
		s.text(cols[i], l, s.styles.header)
	}
	s.row++
}

func (s *budgetSheet) moneyRow(label string, amount float64) {
	s.text("A", sanitizeExcelCell(label), s.styles.label)
	s.number("B", amount, s.styles.money)
	s.row++
}

func newBudgetStyles(f *excelize.File, cur Currency) (budgetStyles, error) {
	var st budgetStyles
	var err error

	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return st, fmt.Errorf("create title style: %w", err)
	}
	if st.subtitle, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 11}}); err != nil {
		return st, fmt.Errorf("create subtitle style: %w", err)
	}
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return st, fmt.Errorf("create header style: %w", err)
	}
	if st.cell, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}); err != nil {
		return st, fmt.Errorf("create cell style: %w", err)
	}
	moneyFmt := fmt.Sprintf(`"%s"#,##0.00`, cur.Symbol)
	st.money, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &moneyFmt,
	})
	if err != nil {
		return st, fmt.Errorf("create money style: %w", err)
	}
	st.label, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return st, fmt.Errorf("create label style: %w", err)
	}
	st.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: &moneyFmt,
	})
	if err != nil {
		return st, fmt.Errorf("create total style: %w", err)
	}
	return st, nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
