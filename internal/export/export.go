// Package export renders an evaluated pro forma as a spreadsheet.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/xuri/excelize/v2"
)

// Format is a supported download format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Sheet names of the xlsx workbook.
const (
	SheetCashflow     = "Cashflow"
	SheetKPIs         = "KPIs"
	SheetAmortization = "Amortization"
	SheetWarnings     = "Warnings"
)

// ErrUnknownFormat is returned for formats other than xlsx and csv.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat normalizes a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName is the download name of an export.
func (f Format) FileName(base string) string {
	if base == "" {
		base = "proforma"
	}
	return base + "." + string(f)
}

// Write renders res in the given format.
func Write(w io.Writer, f Format, res *proforma.Result) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// cashflowColumn is one column of the cashflow table.
type cashflowColumn struct {
	header string
	value  func(r proforma.CashflowRow) float64
}

var cashflowColumns = []cashflowColumn{
	{"Rental income", func(r proforma.CashflowRow) float64 { return r.RentalIncome }},
	{"Sales income", func(r proforma.CashflowRow) float64 { return r.SalesIncome }},
	{"Exit proceeds", func(r proforma.CashflowRow) float64 { return r.ExitProceeds }},
	{"Total revenues", func(r proforma.CashflowRow) float64 { return r.TotalRevenues }},
	{"Property management", func(r proforma.CashflowRow) float64 { return r.PropertyManagement }},
	{"Operating costs", func(r proforma.CashflowRow) float64 { return r.OperatingCosts }},
	{"OPEX", func(r proforma.CashflowRow) float64 { return r.Opex }},
	{"NOI", func(r proforma.CashflowRow) float64 { return r.NOI }},
	{"Tax", func(r proforma.CashflowRow) float64 { return r.Tax }},
	{"CAPEX", func(r proforma.CashflowRow) float64 { return r.Capex }},
	{"Upfront fees", func(r proforma.CashflowRow) float64 { return r.UpfrontFees }},
	{"Unlevered cash flow", func(r proforma.CashflowRow) float64 { return r.UnleveredCashFlow }},
	{"Debt drawdown", func(r proforma.CashflowRow) float64 { return r.DebtDrawdown }},
	{"Interest", func(r proforma.CashflowRow) float64 { return r.Interest }},
	{"Principal", func(r proforma.CashflowRow) float64 { return r.Principal }},
	{"Bullet repayment", func(r proforma.CashflowRow) float64 { return r.BulletRepayment }},
	{"Prepayment fee", func(r proforma.CashflowRow) float64 { return r.PrepaymentFee }},
	{"Debt service", func(r proforma.CashflowRow) float64 { return r.DebtService }},
	{"Equity injection", func(r proforma.CashflowRow) float64 { return r.EquityInjection }},
	{"Net cash flow", func(r proforma.CashflowRow) float64 { return r.NetCashFlow }},
	{"Occupied area (m²)", func(r proforma.CashflowRow) float64 { return r.OccupiedAreaM2 }},
	{"Cumulative unlevered", func(r proforma.CashflowRow) float64 { return r.CumulativeUnlevered }},
	{"Cumulative net", func(r proforma.CashflowRow) float64 { return r.CumulativeNet }},
}

// kpiRows lists the KPI sheet in display order.
func kpiRows(k proforma.KPIs) []struct {
	label string
	value proforma.Metric
} {
	return []struct {
		label string
		value proforma.Metric
	}{
		{"Unlevered IRR", k.UnleveredIRR},
		{"Levered IRR", k.LeveredIRR},
		{"NPV", k.NPV},
		{"Levered NPV", k.LeveredNPV},
		{"Equity multiple", k.EquityMultiple},
		{"Equity required", k.EquityRequired},
		{"Net margin", k.NetMargin},
		{"Total CAPEX", k.TotalCapex},
		{"Total project cost", k.TotalProjectCost},
		{"Debt amount", k.DebtAmount},
		{"Loan to cost", k.LoanToCost},
		{"Gross exit value", k.GrossExitValue},
		{"Net exit value", k.NetExitValue},
		{"Equity required (local)", k.EquityRequiredLocal},
		{"Net exit value (local)", k.NetExitValueLocal},
	}
}

// WriteCSV writes the cashflow as one row per year.
func WriteCSV(w io.Writer, res *proforma.Result) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(cashflowColumns)+1)
	header = append(header, "Year")
	for _, col := range cashflowColumns {
		header = append(header, col.header)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range res.Cashflow {
		record := make([]string, 0, len(header))
		record = append(record, strconv.Itoa(row.Year))
		for _, col := range cashflowColumns {
			record = append(record, strconv.FormatFloat(col.value(row), 'f', 2, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for year %d: %w", row.Year, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with cashflow, KPI and amortization sheets.
func WriteXLSX(w io.Writer, res *proforma.Result) error {
	wb, err := NewWorkbook(res)
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// NewWorkbook builds the export workbook in memory. The caller closes it.
func NewWorkbook(res *proforma.Result) (*excelize.File, error) {
	wb := excelize.NewFile()

	if err := wb.SetSheetName("Sheet1", SheetCashflow); err != nil {
		_ = wb.Close()
		return nil, err
	}
	writers := []struct {
		sheet string
		fill  func(*excelize.File, *proforma.Result) error
	}{
		{SheetCashflow, writeCashflowSheet},
		{SheetKPIs, writeKPISheet},
		{SheetAmortization, writeAmortizationSheet},
		{SheetWarnings, writeWarningsSheet},
	}
	for _, sw := range writers {
		if sw.sheet != SheetCashflow {
			if _, err := wb.NewSheet(sw.sheet); err != nil {
				_ = wb.Close()
				return nil, fmt.Errorf("failed to create sheet %s: %w", sw.sheet, err)
			}
		}
		if err := sw.fill(wb, res); err != nil {
			_ = wb.Close()
			return nil, fmt.Errorf("failed to fill sheet %s: %w", sw.sheet, err)
		}
	}
	wb.SetActiveSheet(0)
	return wb, nil
}

// writeCashflowSheet writes one row per year.
func writeCashflowSheet(wb *excelize.File, res *proforma.Result) error {
	if err := wb.SetCellValue(SheetCashflow, "A1", "Year"); err != nil {
		return err
	}
	for i, col := range cashflowColumns {
		if err := wb.SetCellValue(SheetCashflow, cell(1, i+2), col.header); err != nil {
			return err
		}
	}
	for j, row := range res.Cashflow {
		if err := wb.SetCellValue(SheetCashflow, cell(j+2, 1), row.Year); err != nil {
			return err
		}
		for i, col := range cashflowColumns {
			if err := wb.SetCellValue(SheetCashflow, cell(j+2, i+2), col.value(row)); err != nil {
				return err
			}
		}
	}

	style, err := wb.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	if len(res.Cashflow) > 0 {
		last := cell(len(res.Cashflow)+1, len(cashflowColumns)+1)
		if err := wb.SetCellStyle(SheetCashflow, "B2", last, style); err != nil {
			return err
		}
	}
	return wb.SetColWidth(SheetCashflow, "A", "A", 24)
}

// writeKPISheet writes one metric per row. Undefined metrics are left blank.
func writeKPISheet(wb *excelize.File, res *proforma.Result) error {
	if err := wb.SetSheetRow(SheetKPIs, "A1", &[]interface{}{"Metric", "Value"}); err != nil {
		return err
	}
	for i, kpi := range kpiRows(res.KPIs) {
		values := []interface{}{kpi.label, nil}
		if kpi.value.Defined() {
			values[1] = kpi.value.Float()
		}
		if err := wb.SetSheetRow(SheetKPIs, cell(i+2, 1), &values); err != nil {
			return err
		}
	}
	return wb.SetColWidth(SheetKPIs, "A", "A", 28)
}

func writeAmortizationSheet(wb *excelize.File, res *proforma.Result) error {
	header := []interface{}{"Year", "State", "Opening", "Payment", "Interest", "Principal", "Closing"}
	if err := wb.SetSheetRow(SheetAmortization, "A1", &header); err != nil {
		return err
	}
	for i, r := range res.Amortization.Rows {
		values := []interface{}{r.Year, string(r.State), r.Opening, r.Payment, r.Interest, r.Principal, r.Closing}
		if err := wb.SetSheetRow(SheetAmortization, cell(i+2, 1), &values); err != nil {
			return err
		}
	}
	return nil
}

func writeWarningsSheet(wb *excelize.File, res *proforma.Result) error {
	if err := wb.SetCellValue(SheetWarnings, "A1", "Warning"); err != nil {
		return err
	}
	for i, w := range res.Warnings {
		if err := wb.SetCellValue(SheetWarnings, cell(i+2, 1), w); err != nil {
			return err
		}
	}
	return nil
}

// cell names a 1-based (row, col) coordinate. Both are always in range.
func cell(row, col int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
