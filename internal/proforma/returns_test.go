package proforma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNPV(t *testing.T) {
	assert.InDelta(t, 0, NPV(0.1, []float64{-100, 110}), 1e-9)
	assert.InDelta(t, 17.62942640857591, NPV(0.08, []float64{-1000, 300, 400, 500}), 1e-9)
	assert.InDelta(t, -100, NPV(0.5, []float64{-100}), 1e-9)
	assert.True(t, math.IsNaN(NPV(-1, []float64{-100, 110})))
}

func TestIRR(t *testing.T) {
	tests := []struct {
		name  string
		flows []float64
		want  float64
	}{
		{"single period", []float64{-100, 110}, 0.1},
		{"three periods", []float64{-1000, 300, 400, 500}, 0.08896339469335},
		{"break even", []float64{-500, 250, 250}, 0},
		{"loss", []float64{-1000, 100, 100}, -0.6298437881283576},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IRR(tt.flows)
			assert.InDelta(t, tt.want, got, 1e-7)
			assert.InDelta(t, 0, NPV(got, tt.flows), 1e-6)
		})
	}
}

func TestIRR_Undefined(t *testing.T) {
	assert.True(t, math.IsNaN(IRR([]float64{100, 200})))
	assert.True(t, math.IsNaN(IRR([]float64{-100, -200})))
	assert.True(t, math.IsNaN(IRR([]float64{0, 0, 0})))
	assert.True(t, math.IsNaN(IRR(nil)))
}

func TestEquityMultiple(t *testing.T) {
	assert.InDelta(t, 1.5, EquityMultiple([]float64{-100, 50, 100}), 1e-9)
	assert.InDelta(t, 1.0, EquityMultiple([]float64{-60, -40, 100}), 1e-9)
	assert.True(t, math.IsNaN(EquityMultiple([]float64{0, 50, 100})))
}

func TestValueExit(t *testing.T) {
	v := ValueExit(5, 100_000, 0, 0.10, 0.05)

	assert.Equal(t, 5, v.Year)
	assert.InDelta(t, 100_000, v.ForwardNOI, 1e-9)
	assert.InDelta(t, 1_000_000, v.GrossValue, 1e-6)
	assert.InDelta(t, 950_000, v.NetValue, 1e-6)

	grown := ValueExit(5, 100_000, 0.02, 0.10, 0)
	assert.InDelta(t, 1_020_000, grown.GrossValue, 1e-6)

	assert.True(t, math.IsNaN(ValueExit(5, 100_000, 0, 0, 0).NetValue))
}
