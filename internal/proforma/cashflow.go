package proforma

import (
	"encoding/json"
	"fmt"
	"math"
)

// CashflowRow is one year of the consolidated statement. Inflows are
// positive and outflows negative.
type CashflowRow struct {
	Year                int     `json:"year"`
	RentalIncome        float64 `json:"rental_income"`
	SalesIncome         float64 `json:"sales_income"`
	ExitProceeds        float64 `json:"exit_proceeds"`
	TotalRevenues       float64 `json:"total_revenues"`
	PropertyManagement  float64 `json:"property_management"`
	OperatingCosts      float64 `json:"operating_costs"`
	Opex                float64 `json:"opex"`
	NOI                 float64 `json:"noi"`
	Tax                 float64 `json:"tax"`
	Capex               float64 `json:"capex"`
	UpfrontFees         float64 `json:"upfront_fees"`
	UnleveredCashFlow   float64 `json:"unlevered_cash_flow"`
	DebtDrawdown        float64 `json:"debt_drawdown"`
	Interest            float64 `json:"interest"`
	Principal           float64 `json:"principal"`
	BulletRepayment     float64 `json:"bullet_repayment"`
	PrepaymentFee       float64 `json:"prepayment_fee"`
	DebtService         float64 `json:"debt_service"`
	EquityInjection     float64 `json:"equity_injection"`
	NetCashFlow         float64 `json:"net_cash_flow"`
	OccupiedAreaM2      float64 `json:"occupied_area_m2"`
	CumulativeUnlevered float64 `json:"cumulative_unlevered"`
	CumulativeNet       float64 `json:"cumulative_net"`
}

// Metric is a KPI value that may be undefined. NaN and infinities encode
// as JSON null.
type Metric float64

// Float returns the metric as a float64.
func (m Metric) Float() float64 { return float64(m) }

// Defined reports whether the metric has a finite value.
func (m Metric) Defined() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON writes null for undefined values.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

// UnmarshalJSON reads null as NaN.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

// KPIs are the investment metrics of a scenario.
type KPIs struct {
	UnleveredIRR Metric `json:"unlevered_irr"`
	// LeveredIRR is the IRR of net_cash_flow, where equity enters as the
	// unfunded share of each year's CAPEX and fees rather than as one
	// year-0 equity injection. LeveredNPV and EquityMultiple use the same stream.
	LeveredIRR          Metric `json:"levered_irr"`
	NPV                 Metric `json:"npv"`
	LeveredNPV          Metric `json:"levered_npv"`
	EquityMultiple      Metric `json:"equity_multiple"`
	EquityRequired      Metric `json:"equity_required"`
	NetMargin           Metric `json:"net_margin"`
	TotalCapex          Metric `json:"total_capex"`
	TotalProjectCost    Metric `json:"total_project_cost"`
	DebtAmount          Metric `json:"debt_amount"`
	LoanToCost          Metric `json:"loan_to_cost"`
	GrossExitValue      Metric `json:"gross_exit_value"`
	NetExitValue        Metric `json:"net_exit_value"`
	EquityRequiredLocal Metric `json:"equity_required_local"`
	NetExitValueLocal   Metric `json:"net_exit_value_local"`
}

// Result is the full output of one engine run.
type Result struct {
	Site         SiteMetrics          `json:"site"`
	Parking      Parking              `json:"parking"`
	Construction ConstructionBudget   `json:"construction"`
	Debt         DebtTerms            `json:"debt"`
	Capex        CapexSummary         `json:"capex"`
	Operating    OperatingAssumptions `json:"operating"`
	Amortization AmortizationSchedule `json:"amortization"`
	Schedule     UnitSchedule         `json:"schedule"`
	Exit         ExitValuation        `json:"exit"`
	Cashflow     []CashflowRow        `json:"cashflow"`
	KPIs         KPIs                 `json:"kpis"`
	Warnings     []string             `json:"warnings"`
}

// Run evaluates a scenario end to end. Inputs are validated before any
// stage runs; degenerate financials yield undefined KPIs rather than errors.
func Run(params ProjectParameters, units []UnitRecord) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateUnits(units); err != nil {
		return nil, err
	}

	site, err := ComputeSiteMetrics(params.Site)
	if err != nil {
		return nil, err
	}
	parking := ComputeParking(params.Construction.ParkingCostPerSpace, units)
	budget, err := ComputeConstructionBudget(params.Construction, params.Site, units, parking)
	if err != nil {
		return nil, err
	}
	debt := ComputeDebtTerms(params.Financing)
	capex := ComputeCapexSummary(budget, debt)
	ops := NormalizeOperating(params)
	amort := BuildAmortization(debt, ops.HoldingPeriod)
	sched := ScheduleUnits(units, ops)

	res := &Result{
		Site:         site,
		Parking:      parking,
		Construction: budget,
		Debt:         debt,
		Capex:        capex,
		Operating:    ops,
		Amortization: amort,
		Schedule:     sched,
		Warnings:     []string{},
	}
	if w := budget.SCurveWarning(); w != "" {
		res.Warnings = append(res.Warnings, w)
	}
	if gla := programmeGLA(units); site.GLAM2 > 0 && gla > site.GLAM2 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("unit programme GLA %.0f m² exceeds site GLA %.0f m²", gla, site.GLAM2))
	}

	exitYear := ops.HoldingPeriod
	exitRent := sched.Rent[exitYear]
	exitNOI := exitRent - operatingCosts(sched.OccupiedArea[exitYear], exitYear, ops) - exitRent*ops.PMFee
	res.Exit = ValueExit(exitYear, exitNOI, ops.RentGrowth, ops.ExitYield, ops.TransactionFee)

	res.Cashflow = buildCashflow(ops, sched, budget, debt, capex, amort, res.Exit)
	res.KPIs = computeKPIs(params, ops, budget, debt, capex, res.Exit, res.Cashflow)
	return res, nil
}

// operatingCosts is the area-based OPEX of a year, indexed on inflation from year 1.
func operatingCosts(occupiedArea float64, year int, ops OperatingAssumptions) float64 {
	return occupiedArea * ops.OpexPerM2 * math.Pow(1+ops.Inflation, float64(year-1))
}

func programmeGLA(units []UnitRecord) float64 {
	var gla float64
	for _, u := range units {
		gla += u.SurfaceM2
	}
	return gla
}

func buildCashflow(
	ops OperatingAssumptions,
	sched UnitSchedule,
	budget ConstructionBudget,
	debt DebtTerms,
	capex CapexSummary,
	amort AmortizationSchedule,
	exit ExitValuation,
) []CashflowRow {
	rows := make([]CashflowRow, 0, ops.HoldingPeriod+1)
	var cumUnlevered, cumNet float64

	for year := 0; year <= ops.HoldingPeriod; year++ {
		row := CashflowRow{Year: year}

		if year > 0 {
			row.RentalIncome = sched.Rent[year]
			row.SalesIncome = sched.Sales[year]
			row.OccupiedAreaM2 = sched.OccupiedArea[year]
			row.PropertyManagement = -row.RentalIncome * ops.PMFee
			row.OperatingCosts = -operatingCosts(row.OccupiedAreaM2, year, ops)
			row.Opex = row.PropertyManagement + row.OperatingCosts
			row.TotalRevenues = row.RentalIncome + row.SalesIncome
			row.NOI = row.TotalRevenues + row.Opex
			if year > ops.TaxHolidayYears && row.NOI > 0 {
				row.Tax = -ops.CorporateTaxRate * row.NOI
			}
		} else {
			row.UpfrontFees = -debt.TotalUpfrontFee
			row.EquityInjection = -capex.EquityRequired
		}

		row.Capex = -budget.Disbursement(year)
		if year == exit.Year {
			row.ExitProceeds = exit.NetValue
		}
		row.UnleveredCashFlow = row.NOI + row.Tax + row.Capex + row.ExitProceeds

		row.DebtDrawdown = capex.LoanToCost * -(row.Capex + row.UpfrontFees)
		if ar, ok := amort.Row(year); ok {
			row.Interest = -ar.Interest
			row.Principal = -ar.Principal
		}
		if year == exit.Year {
			bullet := amort.BulletAt(year)
			row.BulletRepayment = -bullet
			row.PrepaymentFee = -bullet * debt.PrepaymentRate
		}
		row.DebtService = row.Interest + row.Principal + row.BulletRepayment + row.PrepaymentFee

		row.NetCashFlow = row.UnleveredCashFlow + row.UpfrontFees + row.DebtDrawdown + row.DebtService

		cumUnlevered += row.UnleveredCashFlow
		cumNet += row.NetCashFlow
		row.CumulativeUnlevered = cumUnlevered
		row.CumulativeNet = cumNet
		rows = append(rows, row)
	}
	return rows
}

func computeKPIs(
	params ProjectParameters,
	ops OperatingAssumptions,
	budget ConstructionBudget,
	debt DebtTerms,
	capex CapexSummary,
	exit ExitValuation,
	rows []CashflowRow,
) KPIs {
	unlevered := make([]float64, len(rows))
	levered := make([]float64, len(rows))
	var unleveredSum float64
	for i, r := range rows {
		unlevered[i] = r.UnleveredCashFlow
		levered[i] = r.NetCashFlow
		unleveredSum += r.UnleveredCashFlow
	}

	netMargin := math.NaN()
	if budget.TotalCapex != 0 {
		netMargin = unleveredSum / budget.TotalCapex
	}

	equityLocal, exitLocal := math.NaN(), math.NaN()
	if fx := params.Site.FXEURLocal; fx > 0 {
		equityLocal = capex.EquityRequired * fx
		exitLocal = exit.NetValue * fx
	}

	return KPIs{
		UnleveredIRR:        Metric(IRR(unlevered)),
		LeveredIRR:          Metric(IRR(levered)),
		NPV:                 Metric(NPV(ops.DiscountRate, unlevered)),
		LeveredNPV:          Metric(NPV(ops.DiscountRate, levered)),
		EquityMultiple:      Metric(EquityMultiple(levered)),
		EquityRequired:      Metric(capex.EquityRequired),
		NetMargin:           Metric(netMargin),
		TotalCapex:          Metric(budget.TotalCapex),
		TotalProjectCost:    Metric(capex.TotalProjectCost),
		DebtAmount:          Metric(debt.Principal),
		LoanToCost:          Metric(capex.LoanToCost),
		GrossExitValue:      Metric(exit.GrossValue),
		NetExitValue:        Metric(exit.NetValue),
		EquityRequiredLocal: Metric(equityLocal),
		NetExitValueLocal:   Metric(exitLocal),
	}
}
