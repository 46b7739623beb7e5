package scenario

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/xuri/excelize/v2"
)

// UnitsSheet is the sheet read from a units workbook. When it is absent
// the first sheet is used.
const UnitsSheet = "Units"

// unitColumns maps normalized header labels to unit fields. Both the
// snake_case keys of the JSON form and the labels of the legacy
// spreadsheet model are accepted.
var unitColumns = map[string]string{
	"code":                       "code",
	"asset_class":                "asset_class",
	"assetclass":                 "asset_class",
	"surface_m2":                 "surface_m2",
	"surface (gla m²)":           "surface_m2",
	"surface (m²)":               "surface_m2",
	"rent_per_m2_month":          "rent_per_m2_month",
	"rent €/m²/mo":               "rent_per_m2_month",
	"price_per_m2":               "price_per_m2",
	"price €/m²":                 "price_per_m2",
	"mode":                       "mode",
	"start_year":                 "start_year",
	"start year":                 "start_year",
	"sale_year":                  "sale_year",
	"sale year":                  "sale_year",
	"occupancy_pct":              "occupancy_pct",
	"occ %":                      "occupancy_pct",
	"rent_growth_pct":            "rent_growth_pct",
	"rent growth %":              "rent_growth_pct",
	"appreciation_pct":           "appreciation_pct",
	"asset value growth (%/yr)":  "appreciation_pct",
	"parking_per_unit":           "parking_per_unit",
	"parking per unit":           "parking_per_unit",
	"parking_ratio_per_100m2":    "parking_ratio_per_100m2",
	"parking ratio (per 100 m²)": "parking_ratio_per_100m2",
	"phase":                      "phase",
	"notes":                      "notes",
}

// LoadUnits reads the unit programme from an xlsx workbook.
func LoadUnits(path string) ([]proforma.UnitRecord, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open units workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()
	return readUnits(wb)
}

// ReadUnits reads the unit programme from an xlsx stream.
func ReadUnits(r io.Reader) ([]proforma.UnitRecord, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open units workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()
	return readUnits(wb)
}

func readUnits(wb *excelize.File) ([]proforma.UnitRecord, error) {
	sheet := UnitsSheet
	if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}

	columns := make(map[int]string, len(rows[0]))
	for i, h := range rows[0] {
		if field, ok := unitColumns[normalizeHeader(h)]; ok {
			columns[i] = field
		}
	}
	if !hasField(columns, "surface_m2") {
		return nil, fmt.Errorf("sheet %s has no surface column", sheet)
	}

	units := make([]proforma.UnitRecord, 0, len(rows)-1)
	for r := 1; r < len(rows); r++ {
		if isBlankRow(rows[r]) {
			continue
		}
		u, err := parseUnitRow(rows[r], columns)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", sheet, r+1, err)
		}
		units = append(units, u)
	}
	return units, nil
}

func parseUnitRow(row []string, columns map[int]string) (proforma.UnitRecord, error) {
	var u proforma.UnitRecord
	for i, field := range columns {
		if i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}

		var err error
		switch field {
		case "code":
			u.Code = value
		case "asset_class":
			u.AssetClass = value
		case "phase":
			u.Phase = value
		case "notes":
			u.Notes = value
		case "mode":
			u.Mode, err = proforma.ParseDisposition(value)
		case "sale_year":
			u.SaleYear, err = proforma.ParseSaleTiming(value)
		case "start_year":
			var year int
			year, err = parseYear(value)
			u.StartYear = &year
		case "surface_m2":
			u.SurfaceM2, err = parseNumber(value)
		case "rent_per_m2_month":
			u.RentPerM2Month, err = parseNumber(value)
		case "price_per_m2":
			u.PricePerM2, err = parseNumber(value)
		case "occupancy_pct":
			u.OccupancyPct, err = parseOptional(value)
		case "rent_growth_pct":
			u.RentGrowthPct, err = parseOptional(value)
		case "appreciation_pct":
			u.AppreciationPct, err = parseOptional(value)
		case "parking_per_unit":
			u.ParkingPerUnit, err = parseOptional(value)
		case "parking_ratio_per_100m2":
			u.ParkingRatio, err = parseOptional(value)
		}
		if err != nil {
			return proforma.UnitRecord{}, fmt.Errorf("column %s: %w", field, err)
		}
	}
	if u.Mode == "" {
		u.Mode = proforma.DispositionRent
	}
	return u, nil
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func hasField(columns map[int]string, field string) bool {
	for _, f := range columns {
		if f == field {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, " ", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// parseOptional keeps NaN cells as unset overrides.
func parseOptional(s string) (*float64, error) {
	if strings.EqualFold(s, "nan") {
		return nil, nil
	}
	f, err := parseNumber(s)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseYear(s string) (int, error) {
	f, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return int(f), nil
}
