package proforma

import "math"

const (
	irrTolerance     = 1e-10
	irrMaxIterations = 100
)

// NPV discounts flows at rate; flows[0] is at time zero and is not discounted.
func NPV(rate float64, flows []float64) float64 {
	if rate <= -1 {
		return math.NaN()
	}
	var npv float64
	for t, cf := range flows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

// npvDerivative is d(NPV)/d(rate).
func npvDerivative(rate float64, flows []float64) float64 {
	var d float64
	for t, cf := range flows {
		if t == 0 {
			continue
		}
		d -= float64(t) * cf / math.Pow(1+rate, float64(t+1))
	}
	return d
}

// IRR is the rate at which NPV is zero. It returns NaN when the stream has
// no sign change or no root can be located.
func IRR(flows []float64) float64 {
	var hasPos, hasNeg bool
	for _, cf := range flows {
		hasPos = hasPos || cf > 0
		hasNeg = hasNeg || cf < 0
	}
	if !hasPos || !hasNeg {
		return math.NaN()
	}

	rate := 0.1
	for i := 0; i < irrMaxIterations; i++ {
		f := NPV(rate, flows)
		d := npvDerivative(rate, flows)
		if d == 0 || math.IsNaN(f) || math.IsNaN(d) {
			break
		}
		next := rate - f/d
		if next <= -1 || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-rate) < irrTolerance {
			return next
		}
		rate = next
	}
	return bisectIRR(flows)
}

// bisectIRR scans for a sign change of NPV and bisects inside it.
func bisectIRR(flows []float64) float64 {
	lo := -0.99
	fLo := NPV(lo, flows)
	for hi := -0.95; hi <= 100; hi += 0.05 {
		fHi := NPV(hi, flows)
		if fLo == 0 {
			return lo
		}
		if math.Signbit(fLo) != math.Signbit(fHi) {
			for i := 0; i < 200; i++ {
				mid := (lo + hi) / 2
				fMid := NPV(mid, flows)
				if math.Abs(fMid) < irrTolerance || hi-lo < irrTolerance {
					return mid
				}
				if math.Signbit(fMid) == math.Signbit(fLo) {
					lo, fLo = mid, fMid
				} else {
					hi = mid
				}
			}
			return (lo + hi) / 2
		}
		lo, fLo = hi, fHi
	}
	return math.NaN()
}

// EquityMultiple is the sum of positive flows over the magnitude of the sum
// of negative flows. It is NaN when nothing was invested.
func EquityMultiple(flows []float64) float64 {
	var pos, neg float64
	for _, cf := range flows {
		if cf > 0 {
			pos += cf
		} else {
			neg += cf
		}
	}
	if neg == 0 {
		return math.NaN()
	}
	return pos / math.Abs(neg)
}
