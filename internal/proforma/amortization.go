package proforma

import "math"

// balanceEpsilon absorbs floating-point residue on a repaid balance.
const balanceEpsilon = 1e-8

// LoanState is the phase of the loan in a given year.
type LoanState string

const (
	LoanGrace      LoanState = "grace"
	LoanAmortizing LoanState = "amortizing"
	LoanMatured    LoanState = "matured"
)

// AmortizationRow is one year of the debt schedule.
type AmortizationRow struct {
	Year      int       `json:"year"`
	State     LoanState `json:"state"`
	Opening   float64   `json:"opening"`
	Payment   float64   `json:"payment"`
	Interest  float64   `json:"interest"`
	Principal float64   `json:"principal"`
	Closing   float64   `json:"closing"`
}

// AmortizationSchedule is the loan schedule for years 1..horizon.
type AmortizationSchedule struct {
	Principal float64           `json:"principal"`
	Annuity   float64           `json:"annuity"`
	Rows      []AmortizationRow `json:"rows"`
}

// Annuity is the constant payment that repays principal over n periods at rate r.
// A zero rate repays in straight line; n <= 0 yields no payment.
func Annuity(principal, rate float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	if rate == 0 {
		return principal / float64(n)
	}
	return principal * rate / (1 - math.Pow(1+rate, -float64(n)))
}

// BuildAmortization runs the grace / amortizing / matured schedule up to the
// horizon year. The annuity is sized on the post-grace term only. When the
// grace period covers the whole term no principal is scheduled and the
// balance is left for the bullet at exit.
func BuildAmortization(debt DebtTerms, horizon int) AmortizationSchedule {
	amortYears := debt.TermYears - debt.GraceYears
	schedule := AmortizationSchedule{
		Principal: debt.Principal,
		Annuity:   Annuity(debt.Principal, debt.InterestRate, amortYears),
		Rows:      make([]AmortizationRow, 0, horizon),
	}

	balance := debt.Principal
	for year := 1; year <= horizon; year++ {
		row := AmortizationRow{Year: year, Opening: balance}
		switch {
		case year > debt.TermYears:
			row.State = LoanMatured
		case year <= debt.GraceYears:
			row.State = LoanGrace
			row.Interest = balance * debt.InterestRate
			row.Payment = row.Interest
		default:
			row.State = LoanAmortizing
			row.Interest = balance * debt.InterestRate
			row.Payment = schedule.Annuity
			row.Principal = row.Payment - row.Interest
			if row.Principal > balance {
				row.Principal = balance
				row.Payment = row.Interest + row.Principal
			}
			if row.Principal < 0 {
				row.Principal = 0
			}
		}

		row.Closing = balance - row.Principal
		if row.Closing < balanceEpsilon {
			row.Closing = 0
		}
		balance = row.Closing
		schedule.Rows = append(schedule.Rows, row)
	}
	return schedule
}

// Row returns the schedule row of a year.
func (s AmortizationSchedule) Row(year int) (AmortizationRow, bool) {
	if year < 1 || year > len(s.Rows) {
		return AmortizationRow{}, false
	}
	return s.Rows[year-1], true
}

// BulletAt is the balance still outstanding after the scheduled payment of
// the given year, repaid in one lump sum when the project exits.
func (s AmortizationSchedule) BulletAt(year int) float64 {
	if year <= 0 {
		return s.Principal
	}
	row, ok := s.Row(year)
	if !ok {
		return 0
	}
	return row.Closing
}
