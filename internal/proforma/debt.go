package proforma

// DebtTerms are the loan-level amounts known before amortization.
type DebtTerms struct {
	Principal       float64 `json:"principal"`
	InterestRate    float64 `json:"interest_rate"`
	TermYears       int     `json:"term_years"`
	GraceYears      int     `json:"grace_years"`
	ArrangementFee  float64 `json:"arrangement_fee"`
	FlatUpfrontFee  float64 `json:"flat_upfront_fee"`
	TotalUpfrontFee float64 `json:"total_upfront_fee"`
	PrepaymentRate  float64 `json:"prepayment_rate"`
}

// ComputeDebtTerms derives fees from the financing inputs. The principal is
// the configured amount; equity is whatever the project cost leaves over.
// Without a principal there is no facility, so no fee is charged.
func ComputeDebtTerms(f FinancingParams) DebtTerms {
	terms := DebtTerms{
		Principal:      f.DebtAmount,
		InterestRate:   pct(f.InterestRatePct),
		TermYears:      f.LoanTermYears,
		GraceYears:     f.GraceYears,
		PrepaymentRate: pct(f.PrepaymentFeePct),
	}
	if f.DebtAmount == 0 {
		return terms
	}
	terms.ArrangementFee = f.DebtAmount * pct(f.ArrangementFeePct)
	terms.FlatUpfrontFee = f.UpfrontFee
	terms.TotalUpfrontFee = terms.ArrangementFee + terms.FlatUpfrontFee
	return terms
}
