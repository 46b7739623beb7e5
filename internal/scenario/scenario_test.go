package scenario

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlScenario = `
name: dakar-mixed
parameters:
  site:
    land_area_m2: 10000
    footprint_ratio_pct: 50
    far: 2
    building_efficiency_pct: 80
    country: Senegal
    fx_eur_local: 655.957
  tax:
    corporate_tax_rate_pct: 30
    tax_holiday_years: 2
    discount_rate_pct: 8
  construction:
    costing:
      blended:
        structure_per_m2: 600
        finishing_per_m2: 300
        utilities_per_m2: 100
    s_curve_pct: [30, 40, 30]
  financing:
    debt_amount: 400000
    interest_rate_pct: 6
    loan_term_years: 10
  operation:
    occupancy_pct: 95
  exit:
    holding_period_years: 5
    exit_yield_pct: 8
units:
  - code: R-1
    asset_class: Residential
    surface_m2: 500
    rent_per_m2_month: 20
    mode: mixed
    start_year: 1
    sale_year: 3
    occupancy_pct: 90
  - code: S-1
    asset_class: Retail
    surface_m2: 200
    price_per_m2: 2500
    mode: sale
    sale_year: exit
`

func TestDecode_YAML(t *testing.T) {
	s, err := Decode(strings.NewReader(yamlScenario), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "dakar-mixed", s.Name)
	assert.Equal(t, 10000.0, s.Parameters.Site.LandAreaM2)
	assert.Equal(t, [3]float64{30, 40, 30}, s.Parameters.Construction.SCurvePct)
	assert.Equal(t, proforma.CostingBlended, s.Parameters.Construction.Costing.Mode())
	assert.Nil(t, s.Parameters.Operation.ValueGrowthPct)

	require.Len(t, s.Units, 2)
	year, ok := s.Units[0].SaleYear.Year()
	assert.True(t, ok)
	assert.Equal(t, 3, year)
	require.NotNil(t, s.Units[0].OccupancyPct)
	assert.Equal(t, 90.0, *s.Units[0].OccupancyPct)
	assert.True(t, s.Units[1].SaleYear.IsExit())
	assert.Nil(t, s.Units[1].StartYear)
}

func TestDecode_JSON(t *testing.T) {
	body := `{
		"parameters": {
			"construction": {"costing": {"asset_class": {"cost_table": [{"asset_class": "Office", "cost_per_m2": 900}]}}},
			"financing": {"loan_term_years": 10},
			"exit": {"holding_period_years": 3, "exit_yield_pct": 9}
		},
		"units": [{"asset_class": "Office", "surface_m2": 100, "mode": "rent", "sale_year": null}]
	}`

	s, err := Decode(strings.NewReader(body), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, proforma.CostingAssetClass, s.Parameters.Construction.Costing.Mode())
	require.Len(t, s.Units, 1)
	assert.True(t, s.Units[0].SaleYear.IsNever())
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		body   string
	}{
		{"yaml", FormatYAML, "parameters:\n  exit:\n    holding_periods: 5\n"},
		{"json", FormatJSON, `{"parameters": {"exit": {"holding_periods": 5}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestDecode_InvalidSaleYear(t *testing.T) {
	_, err := Decode(strings.NewReader("units:\n  - surface_m2: 10\n    sale_year: soon\n"), FormatYAML)
	assert.Error(t, err)
}

func TestEncodeDecode_YAML(t *testing.T) {
	s, err := Decode(strings.NewReader(yamlScenario), FormatYAML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s, FormatYAML))

	again, err := Decode(&buf, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"scenario.yaml", FormatYAML, false},
		{"dir/Scenario.YML", FormatYAML, false},
		{"scenario.json", FormatJSON, false},
		{"scenario.toml", "", true},
		{"scenario", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("name defaults to file name", func(t *testing.T) {
		path := filepath.Join(dir, "plateau.yaml")
		body := strings.Replace(yamlScenario, "name: dakar-mixed\n", "", 1)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		s, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "plateau", s.Name)
		assert.Len(t, s.Units, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("loaded scenario evaluates", func(t *testing.T) {
		path := filepath.Join(dir, "run.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yamlScenario), 0o600))

		s, err := Load(path)
		require.NoError(t, err)
		res, err := proforma.Run(s.Parameters, s.Units)
		require.NoError(t, err)
		assert.Len(t, res.Cashflow, 6)
	})
}
