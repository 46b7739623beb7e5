package proforma

// CapexSummary consolidates the capital requirement of the project.
type CapexSummary struct {
	TotalCapex       float64 `json:"total_capex"`
	UpfrontFees      float64 `json:"upfront_fees"`
	TotalProjectCost float64 `json:"total_project_cost"`
	LoanToCost       float64 `json:"loan_to_cost"`
	EquityRequired   float64 `json:"equity_required"`
}

// ComputeCapexSummary adds financing fees to construction CAPEX.
func ComputeCapexSummary(budget ConstructionBudget, debt DebtTerms) CapexSummary {
	total := budget.TotalCapex + debt.TotalUpfrontFee
	summary := CapexSummary{
		TotalCapex:       budget.TotalCapex,
		UpfrontFees:      debt.TotalUpfrontFee,
		TotalProjectCost: total,
		EquityRequired:   total - debt.Principal,
	}
	if total != 0 {
		summary.LoanToCost = debt.Principal / total
	}
	return summary
}
