package formula

import (
	"math"
	"slices"
	"strconv"

	"smart_edgar/pkg/core/pivot"
)

// =============================================================================
// FORECAST STRATEGY INTERFACE
// =============================================================================

// Series is the time series a strategy reads: rows in period order, columns
// by title, row dimensions by field name.
type Series interface {
	RowCount() int
	ValueOf(column string, row int) (float64, bool)
	RowValue(row int, field string) (string, bool)
}

// Context provides the data needed for a forecast.
type Context struct {
	Column string // column to forecast
	Row    int    // row to forecast; history is rows 0..Row-1
	Source Series
}

// Strategy is a pluggable forecasting algorithm. A missing forecast is a
// normal outcome and reported with ok == false.
type Strategy interface {
	// Name returns the strategy identifier
	Name() string

	// Forecast predicts the value of ctx.Column at ctx.Row
	Forecast(ctx Context) (float64, bool)
}

// point is one observed history value.
type point struct {
	index  int
	season int
	value  float64
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func history(ctx Context, value func(row int) (float64, bool)) []point {
	var pts []point
	for r := 0; r < ctx.Row && r < ctx.Source.RowCount(); r++ {
		v, ok := value(r)
		if !ok || !finite(v) {
			continue
		}
		pts = append(pts, point{index: r, season: r % 4, value: v})
	}
	return pts
}

// fit is an ordinary least squares line over (index, value) pairs.
type fit struct {
	slope, intercept float64
}

func leastSquares(pts []point) (fit, bool) {
	n := float64(len(pts))
	if len(pts) < 2 {
		return fit{}, false
	}
	var sx, sy, sxx, sxy float64
	for _, p := range pts {
		x := float64(p.index)
		sx += x
		sy += p.value
		sxx += x * x
		sxy += x * p.value
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return fit{}, false
	}
	slope := (n*sxy - sx*sy) / den
	return fit{slope: slope, intercept: (sy - slope*sx) / n}, true
}

func (f fit) at(x int) float64 { return f.intercept + f.slope*float64(x) }

// regressed returns the per step regression of pts: element k is the line
// fitted over pts[0..k] evaluated at pts[k]. The first element, having a
// single observation, is the observation itself.
func regressed(pts []point) []float64 {
	out := make([]float64, len(pts))
	for k := range pts {
		if f, ok := leastSquares(pts[:k+1]); ok {
			out[k] = f.at(pts[k].index)
		} else {
			out[k] = pts[k].value
		}
	}
	return out
}

// =============================================================================
// BUILT-IN STRATEGIES
// =============================================================================

// LinearRegression extends the trend of the prior rows.
// Formula: Value(r) = a + b*r, with a and b fitted over rows 0..r-1
type LinearRegression struct{}

func (LinearRegression) Name() string { return "LinearRegression" }

func (s LinearRegression) Forecast(ctx Context) (float64, bool) {
	return linearForecast(history(ctx, columnValue(ctx)), ctx.Row)
}

func linearForecast(pts []point, row int) (float64, bool) {
	f, ok := leastSquares(pts)
	if !ok {
		return 0, false
	}
	v := f.at(row)
	return v, finite(v)
}

func columnValue(ctx Context) func(int) (float64, bool) {
	return func(row int) (float64, bool) { return ctx.Source.ValueOf(ctx.Column, row) }
}

// Quarters scales the linear trend by the average seasonal factor of the
// quarter being forecast.
// Formula: Value(r) = Trend(r) * avg(Actual(i) / Regressed(i)) for i ≡ r mod 4
type Quarters struct{}

func (Quarters) Name() string { return "Quarters" }

func (s Quarters) Forecast(ctx Context) (float64, bool) {
	return seasonalForecast(history(ctx, columnValue(ctx)), ctx.Row)
}

func seasonalForecast(pts []point, row int) (float64, bool) {
	trend, ok := linearForecast(pts, row)
	if !ok {
		return 0, false
	}
	reg := regressed(pts)
	season := row % 4
	var sum float64
	var n int
	for i, p := range pts {
		// the first points carry no trend information
		if i < 2 || p.season != season || reg[i] == 0 {
			continue
		}
		sum += p.value / reg[i]
		n++
	}
	if n == 0 {
		return trend, true
	}
	v := trend * sum / float64(n)
	return v, finite(v)
}

// QuartersCumulated forecasts year to date values (three, six, nine, twelve
// months). Values are turned into single quarters, forecast with the
// seasonal strategy and cumulated again.
type QuartersCumulated struct {
	// MonthsField names the row dimension holding the covered months.
	MonthsField string
}

func (QuartersCumulated) Name() string { return "QuartersCumulated" }

func (s QuartersCumulated) monthsField() string {
	if s.MonthsField == "" {
		return MonthsField
	}
	return s.MonthsField
}

func (s QuartersCumulated) months(src Series, row int) int {
	v, ok := src.RowValue(row, s.monthsField())
	if !ok {
		return 0
	}
	m, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return m
}

// cumulated reports whether row continues the period of the previous row.
func (s QuartersCumulated) cumulated(src Series, row int) bool {
	if row <= 0 || row >= src.RowCount() {
		return false
	}
	m := s.months(src, row)
	return m > 3 && s.months(src, row-1) == m-3
}

func (s QuartersCumulated) Forecast(ctx Context) (float64, bool) {
	src := ctx.Source
	quarter := func(row int) (float64, bool) {
		v, ok := src.ValueOf(ctx.Column, row)
		if !ok {
			return 0, false
		}
		if !s.cumulated(src, row) {
			return v, true
		}
		prev, ok := src.ValueOf(ctx.Column, row-1)
		if !ok {
			return 0, false
		}
		return v - prev, true
	}

	v, ok := seasonalForecast(history(ctx, quarter), ctx.Row)
	if !ok {
		return 0, false
	}
	if s.cumulated(src, ctx.Row) {
		prev, ok := src.ValueOf(ctx.Column, ctx.Row-1)
		if !ok {
			return 0, false
		}
		v += prev
	}
	return v, finite(v)
}

// =============================================================================
// STRATEGY SELECTOR
// =============================================================================

// MonthsField is the row dimension holding the number of months a value
// covers.
const MonthsField = "numberOfMonths"

// StrategySelector maps strategy names to constructors.
type StrategySelector struct {
	strategies map[string]func() Strategy
}

// NewStrategySelector creates a selector with all built-in strategies.
func NewStrategySelector() *StrategySelector {
	return &StrategySelector{
		strategies: map[string]func() Strategy{
			"LinearRegression":  func() Strategy { return LinearRegression{} },
			"Quarters":          func() Strategy { return Quarters{} },
			"QuartersCumulated": func() Strategy { return QuartersCumulated{} },
		},
	}
}

// Register adds or replaces a named strategy.
func (s *StrategySelector) Register(name string, ctor func() Strategy) {
	s.strategies[name] = ctor
}

// ByName creates the named strategy.
func (s *StrategySelector) ByName(name string) (Strategy, bool) {
	ctor, ok := s.strategies[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Names lists the registered strategies, sorted.
func (s *StrategySelector) Names() []string {
	out := make([]string, 0, len(s.strategies))
	for n := range s.strategies {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Select inspects the distinct months markers of src: six month values mean
// year to date reporting, three month values plain quarters, anything else
// falls back to linear regression.
func (s *StrategySelector) Select(src Series) Strategy {
	seen := map[string]bool{}
	for r := 0; r < src.RowCount(); r++ {
		if m, ok := src.RowValue(r, MonthsField); ok {
			seen[m] = true
		}
	}
	return s.choose(seen)
}

// SelectView works like Select on the first layer of v that still lists the
// months dimension, so a consolidated view is judged by the periods it was
// built from.
func (s *StrategySelector) SelectView(v pivot.View) Strategy {
	seen := map[string]bool{}
	if base := pivot.WithRowField(v, MonthsField); base != nil {
		for r := 0; r < base.RowCount(); r++ {
			if m, ok := pivot.RowValue(base, r, MonthsField); ok {
				seen[m] = true
			}
		}
	}
	return s.choose(seen)
}

func (s *StrategySelector) choose(seen map[string]bool) Strategy {
	name := "LinearRegression"
	switch {
	case seen["6"]:
		name = "QuartersCumulated"
	case seen["3"]:
		name = "Quarters"
	}
	st, _ := s.ByName(name)
	return st
}
