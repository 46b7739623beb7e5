package proforma

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Disposition says whether a unit is leased, sold, or leased then sold.
type Disposition string

const (
	DispositionRent  Disposition = "rent"
	DispositionSale  Disposition = "sale"
	DispositionMixed Disposition = "mixed"
)

// ParseDisposition normalizes a free-text mode. Empty means rent and
// "sell" is accepted as an alias of sale.
func ParseDisposition(s string) (Disposition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rent":
		return DispositionRent, nil
	case "sale", "sell":
		return DispositionSale, nil
	case "mixed":
		return DispositionMixed, nil
	default:
		return "", fmt.Errorf("unknown disposition mode %q", s)
	}
}

func (d Disposition) rents() bool {
	return d == DispositionRent || d == DispositionMixed
}

func (d Disposition) sells() bool {
	return d == DispositionSale || d == DispositionMixed
}

type saleKind uint8

const (
	neverSold saleKind = iota
	soldAtExit
	soldAtYear
)

// ExitSentinel is the wire spelling of SoldAtExit.
const ExitSentinel = "exit"

// SaleTiming is when a unit is disposed of: never, at the project exit,
// or in a literal year. The zero value is NeverSold.
type SaleTiming struct {
	kind saleKind
	year int
}

// NeverSold is a unit that is kept through the holding period.
func NeverSold() SaleTiming { return SaleTiming{kind: neverSold} }

// SoldAtExit is a unit whose value is captured by the terminal valuation.
func SoldAtExit() SaleTiming { return SaleTiming{kind: soldAtExit} }

// SoldAtYear is a unit sold individually in the given year.
func SoldAtYear(year int) SaleTiming { return SaleTiming{kind: soldAtYear, year: year} }

// IsNever reports whether the unit is never sold.
func (s SaleTiming) IsNever() bool { return s.kind == neverSold }

// IsExit reports whether the unit is sold with the exit.
func (s SaleTiming) IsExit() bool { return s.kind == soldAtExit }

// Year returns the literal sale year, if any.
func (s SaleTiming) Year() (int, bool) {
	return s.year, s.kind == soldAtYear
}

func (s SaleTiming) String() string {
	switch s.kind {
	case soldAtExit:
		return ExitSentinel
	case soldAtYear:
		return strconv.Itoa(s.year)
	default:
		return ""
	}
}

// ParseSaleTiming reads the textual form: "" for never, "exit" (any case),
// or an integer year. Integral floats such as "5.0" are accepted since
// spreadsheets often store years that way.
func ParseSaleTiming(s string) (SaleTiming, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null"):
		return NeverSold(), nil
	case strings.EqualFold(s, ExitSentinel):
		return SoldAtExit(), nil
	}
	if y, err := strconv.Atoi(s); err == nil {
		return SoldAtYear(y), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return SaleTiming{}, fmt.Errorf("invalid sale year %q", s)
	}
	return SoldAtYear(int(f)), nil
}

// MarshalJSON writes null, "exit" or a number.
func (s SaleTiming) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case soldAtExit:
		return json.Marshal(ExitSentinel)
	case soldAtYear:
		return json.Marshal(s.year)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string, or a number.
func (s *SaleTiming) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = NeverSold()
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := ParseSaleTiming(str)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	parsed, err := ParseSaleTiming(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (s SaleTiming) MarshalYAML() (interface{}, error) {
	switch s.kind {
	case soldAtExit:
		return ExitSentinel, nil
	case soldAtYear:
		return s.year, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML accepts an empty node, a string, or a number.
func (s *SaleTiming) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	var parsed SaleTiming
	var err error
	switch v := raw.(type) {
	case nil:
		parsed = NeverSold()
	case int:
		parsed = SoldAtYear(v)
	case float64:
		parsed, err = ParseSaleTiming(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		parsed, err = ParseSaleTiming(v)
	default:
		err = fmt.Errorf("invalid sale year %v", v)
	}
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnitRecord is one leasable or sellable unit of the programme.
// Optional per-unit overrides fall back to project defaults when nil or NaN.
type UnitRecord struct {
	Code            string      `json:"code,omitempty" yaml:"code,omitempty"`
	AssetClass      string      `json:"asset_class" yaml:"asset_class"`
	SurfaceM2       float64     `json:"surface_m2" yaml:"surface_m2"`
	RentPerM2Month  float64     `json:"rent_per_m2_month" yaml:"rent_per_m2_month"`
	PricePerM2      float64     `json:"price_per_m2" yaml:"price_per_m2"`
	Mode            Disposition `json:"mode" yaml:"mode"`
	StartYear       *int        `json:"start_year,omitempty" yaml:"start_year,omitempty"`
	SaleYear        SaleTiming  `json:"sale_year" yaml:"sale_year"`
	OccupancyPct    *float64    `json:"occupancy_pct,omitempty" yaml:"occupancy_pct,omitempty"`
	RentGrowthPct   *float64    `json:"rent_growth_pct,omitempty" yaml:"rent_growth_pct,omitempty"`
	AppreciationPct *float64    `json:"appreciation_pct,omitempty" yaml:"appreciation_pct,omitempty"`
	ParkingPerUnit  *float64    `json:"parking_per_unit,omitempty" yaml:"parking_per_unit,omitempty"`
	ParkingRatio    *float64    `json:"parking_ratio_per_100m2,omitempty" yaml:"parking_ratio_per_100m2,omitempty"`
	Phase           string      `json:"phase,omitempty" yaml:"phase,omitempty"`
	Notes           string      `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ValidateUnits rejects unit rows with negative areas, non-finite prices
// or unknown modes.
func ValidateUnits(units []UnitRecord) error {
	for i, u := range units {
		field := fmt.Sprintf("units[%d]", i)
		if !isFinite(u.SurfaceM2) || u.SurfaceM2 < 0 {
			return invalid(field+".surface_m2", "must be a non-negative number, got %v", u.SurfaceM2)
		}
		if !isFinite(u.RentPerM2Month) {
			return invalid(field+".rent_per_m2_month", "must be a finite number, got %v", u.RentPerM2Month)
		}
		if !isFinite(u.PricePerM2) {
			return invalid(field+".price_per_m2", "must be a finite number, got %v", u.PricePerM2)
		}
		if _, err := ParseDisposition(string(u.Mode)); err != nil {
			return invalid(field+".mode", "%v", err)
		}
	}
	return nil
}

// orDefault returns the override as a fraction, or def when unset.
func orDefault(override *float64, def float64) float64 {
	if override == nil || math.IsNaN(*override) {
		return def
	}
	return pct(*override)
}

// orZero returns the value, or zero when unset.
func orZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}
