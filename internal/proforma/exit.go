package proforma

import "math"

// ExitValuation is the terminal sale of the stabilized asset.
type ExitValuation struct {
	Year       int     `json:"year"`
	NOI        float64 `json:"noi"`
	ForwardNOI float64 `json:"forward_noi"`
	GrossValue float64 `json:"gross_value"`
	NetValue   float64 `json:"net_value"`
}

// ValueExit capitalizes next year's NOI: the exit-year NOI grown once by
// rentGrowth, divided by the exit yield, net of transaction fees.
func ValueExit(year int, noi, rentGrowth, exitYield, transactionFee float64) ExitValuation {
	v := ExitValuation{
		Year:       year,
		NOI:        noi,
		ForwardNOI: noi * (1 + rentGrowth),
	}
	if exitYield <= 0 {
		v.GrossValue = math.NaN()
		v.NetValue = math.NaN()
		return v
	}
	v.GrossValue = v.ForwardNOI / exitYield
	v.NetValue = v.GrossValue * (1 - transactionFee)
	return v
}
