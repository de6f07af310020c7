package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// series is a single column "x"; NaN marks an absent value.
type series struct {
	values []float64
	months []string
}

func (s series) RowCount() int { return len(s.values) }

func (s series) ValueOf(column string, row int) (float64, bool) {
	if column != "x" || row < 0 || row >= len(s.values) || math.IsNaN(s.values[row]) {
		return 0, false
	}
	return s.values[row], true
}

func (s series) RowValue(row int, field string) (string, bool) {
	if field != MonthsField || s.months == nil {
		return "", false
	}
	return s.months[row], true
}

func forecastAt(st Strategy, s series, row int) (float64, bool) {
	return st.Forecast(Context{Column: "x", Row: row, Source: s})
}

func TestLinearRegressionExtendsTrend(t *testing.T) {
	v, ok := forecastAt(LinearRegression{}, series{values: []float64{10, 20, 30, 40}}, 4)
	require.True(t, ok)
	assert.InDelta(t, 50, v, 1e-9)
}

func TestLinearRegressionNeedsTwoObservations(t *testing.T) {
	s := series{values: []float64{10, math.NaN(), 30}}

	_, ok := forecastAt(LinearRegression{}, s, 0)
	assert.False(t, ok)
	_, ok = forecastAt(LinearRegression{}, s, 1)
	assert.False(t, ok)
	_, ok = forecastAt(LinearRegression{}, s, 2)
	assert.False(t, ok, "row 1 is absent so only one observation precedes row 2")

	v, ok := forecastAt(LinearRegression{}, s, 3)
	require.True(t, ok)
	assert.InDelta(t, 40, v, 1e-9)
}

func TestLinearRegressionIgnoresNonFinite(t *testing.T) {
	s := series{values: []float64{10, math.Inf(1), 30, 40}}
	v, ok := forecastAt(LinearRegression{}, s, 4)
	require.True(t, ok)
	assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))

	_, ok = forecastAt(LinearRegression{}, series{values: []float64{math.NaN(), math.Inf(-1), 1}}, 3)
	assert.False(t, ok)
}

func TestLinearRegressionUnknownColumn(t *testing.T) {
	_, ok := LinearRegression{}.Forecast(Context{Column: "y", Row: 4, Source: series{values: []float64{1, 2, 3, 4}}})
	assert.False(t, ok)
}

func TestRegressedIsPerStepFit(t *testing.T) {
	pts := []point{{0, 0, 10}, {1, 1, 30}, {2, 2, 20}}
	reg := regressed(pts)
	require.Len(t, reg, 3)
	assert.Equal(t, 10.0, reg[0])
	assert.InDelta(t, 30, reg[1], 1e-9)
	// fit over (0,10),(1,30),(2,20): slope 5, intercept 15
	assert.InDelta(t, 25, reg[2], 1e-9)
}

func TestQuartersConstantSeries(t *testing.T) {
	v, ok := forecastAt(Quarters{}, series{values: []float64{5, 5, 5, 5, 5}}, 5)
	require.True(t, ok)
	assert.InDelta(t, 5, v, 1e-9)
}

func TestQuartersFollowSeason(t *testing.T) {
	s := series{values: []float64{10, 20, 10, 20, 10, 20, 10, 20}}

	linear, ok := forecastAt(LinearRegression{}, s, 8)
	require.True(t, ok)
	seasonal, ok := forecastAt(Quarters{}, s, 8)
	require.True(t, ok)

	assert.Less(t, seasonal, linear, "row 8 falls on a low season")
	assert.Greater(t, seasonal, 0.0)
}

func TestQuartersCumulated(t *testing.T) {
	s := series{
		values: []float64{10, 20, 30, 40, 10, 20, 30, 40},
		months: []string{"3", "6", "9", "12", "3", "6", "9", "12"},
	}
	st := QuartersCumulated{}

	v, ok := forecastAt(st, s, 7)
	require.True(t, ok)
	assert.InDelta(t, 40, v, 1e-9)

	v, ok = forecastAt(st, s, 4)
	require.True(t, ok)
	assert.InDelta(t, 10, v, 1e-9, "a three month row is not cumulated")

	_, ok = forecastAt(st, s, 1)
	assert.False(t, ok)
}

func TestStrategySelector(t *testing.T) {
	sel := NewStrategySelector()
	assert.Equal(t, []string{"LinearRegression", "Quarters", "QuartersCumulated"}, sel.Names())

	tests := []struct {
		months []string
		want   string
	}{
		{[]string{"3", "6", "9"}, "QuartersCumulated"},
		{[]string{"3", "0"}, "Quarters"},
		{[]string{"12", "12"}, "LinearRegression"},
		{nil, "LinearRegression"},
	}
	for _, tt := range tests {
		s := series{values: make([]float64, len(tt.months)), months: tt.months}
		assert.Equal(t, tt.want, sel.Select(s).Name(), "%v", tt.months)
	}

	sel.Register("Flat", func() Strategy { return LinearRegression{} })
	_, ok := sel.ByName("Flat")
	assert.True(t, ok)
	_, ok = sel.ByName("Missing")
	assert.False(t, ok)
}
