package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// testResult evaluates a small rented scenario with a loan.
func testResult(t *testing.T) *proforma.Result {
	t.Helper()
	start := 1
	params := proforma.ProjectParameters{
		Site: proforma.SiteParams{
			LandAreaM2:            10000,
			FootprintRatioPct:     50,
			FAR:                   2,
			BuildingEfficiencyPct: 80,
		},
		Construction: proforma.ConstructionParams{
			Costing: proforma.Costing{
				Blended: &proforma.BlendedCosting{StructurePerM2: 600, FinishingPerM2: 300, UtilitiesPerM2: 100},
			},
			SCurvePct: [3]float64{30, 40, 30},
		},
		Financing: proforma.FinancingParams{
			DebtAmount:      400000,
			InterestRatePct: 6,
			LoanTermYears:   10,
		},
		Operation: proforma.OperationParams{OccupancyPct: 100},
		Exit:      proforma.ExitParams{HoldingPeriodYears: 3, ExitYieldPct: 8},
	}
	units := []proforma.UnitRecord{{
		AssetClass:     "Residential",
		SurfaceM2:      500,
		RentPerM2Month: 20,
		Mode:           proforma.DispositionRent,
		StartYear:      &start,
	}}
	res, err := proforma.Run(params, units)
	require.NoError(t, err)
	return res
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{" CSV ", FormatCSV, false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, "proforma.xlsx", FormatXLSX.FileName(""))
	assert.Equal(t, "site-12.csv", FormatCSV.FileName("site-12"))
}

func TestWriteCSV(t *testing.T) {
	res := testResult(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(res.Cashflow)+1)

	header := records[0]
	assert.Equal(t, "Year", header[0])
	assert.Len(t, header, len(cashflowColumns)+1)

	netIdx := -1
	for i, h := range header {
		if h == "Net cash flow" {
			netIdx = i
		}
	}
	require.NotEqual(t, -1, netIdx)

	for i, row := range res.Cashflow {
		record := records[i+1]
		assert.Equal(t, strconv.Itoa(row.Year), record[0])
		got, err := strconv.ParseFloat(record[netIdx], 64)
		require.NoError(t, err)
		assert.InDelta(t, row.NetCashFlow, got, 0.005)
	}
}

func TestWriteXLSX(t *testing.T) {
	res := testResult(t)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, res))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	assert.Equal(t, []string{SheetCashflow, SheetKPIs, SheetAmortization, SheetWarnings}, wb.GetSheetList())

	raw := excelize.Options{RawCellValue: true}

	t.Run("cashflow", func(t *testing.T) {
		rows, err := wb.GetRows(SheetCashflow, raw)
		require.NoError(t, err)
		require.Len(t, rows, len(res.Cashflow)+1)
		assert.Equal(t, "Year", rows[0][0])
		assert.Equal(t, "Rental income", rows[0][1])

		year1, err := strconv.ParseFloat(rows[2][1], 64)
		require.NoError(t, err)
		assert.InDelta(t, res.Cashflow[1].RentalIncome, year1, 1e-6)
	})

	t.Run("kpis", func(t *testing.T) {
		rows, err := wb.GetRows(SheetKPIs, raw)
		require.NoError(t, err)
		require.Greater(t, len(rows), 1)
		assert.Equal(t, []string{"Metric", "Value"}, rows[0])
		assert.Equal(t, "Unlevered IRR", rows[1][0])

		irr, err := strconv.ParseFloat(rows[1][1], 64)
		require.NoError(t, err)
		assert.InDelta(t, res.KPIs.UnleveredIRR.Float(), irr, 1e-9)
	})

	t.Run("undefined metrics are blank", func(t *testing.T) {
		// No FX rate, so local-currency figures are undefined.
		require.False(t, res.KPIs.EquityRequiredLocal.Defined())
		rows, err := wb.GetRows(SheetKPIs, raw)
		require.NoError(t, err)
		for _, row := range rows {
			if row[0] == "Equity required (local)" {
				assert.True(t, len(row) == 1 || row[1] == "")
				return
			}
		}
		t.Fatal("local equity row missing")
	})

	t.Run("amortization", func(t *testing.T) {
		rows, err := wb.GetRows(SheetAmortization, raw)
		require.NoError(t, err)
		require.Len(t, rows, len(res.Amortization.Rows)+1)
		assert.Equal(t, "amortizing", rows[1][1])
	})
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Format("pdf"), testResult(t))
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Zero(t, buf.Len())
}
