package formula

import (
	"context"
	"fmt"
	"log/slog"

	"smart_edgar/pkg/core/pivot"
)

// Column declares a calculated column.
type Column struct {
	Name    string `yaml:"name" json:"name"`
	Formula string `yaml:"formula" json:"formula"`
}

// Option configures a CalculatedView.
type Option func(*CalculatedView)

// WithRegistry replaces the built-in functions.
func WithRegistry(r *Registry) Option { return func(v *CalculatedView) { v.registry = r } }

// WithStrategy fixes the forecast strategy instead of selecting one from
// the data.
func WithStrategy(s Strategy) Option { return func(v *CalculatedView) { v.strategy = s } }

// WithMarketShare sets the market share lookup.
func WithMarketShare(p MarketShareProvider) Option { return func(v *CalculatedView) { v.market = p } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(v *CalculatedView) { v.log = l } }

type cellKey struct{ col, row int }

type cellResult struct {
	value float64
	ok    bool
}

// CalculatedView layers calculated columns over a base view. The base is
// never modified: base columns are passed through and calculated columns
// follow them. Results are cached per cell. A CalculatedView is not safe
// for concurrent use.
type CalculatedView struct {
	ctx      context.Context
	base     pivot.View
	baseCols int
	exprs    []*Expression
	titles   map[string]int

	registry *Registry
	strategy Strategy
	market   MarketShareProvider
	log      *slog.Logger

	cache      map[cellKey]cellResult
	evaluating map[cellKey]bool
}

var (
	_ pivot.View = (*CalculatedView)(nil)
	_ Series     = (*CalculatedView)(nil)
)

// NewCalculatedView compiles the formulas of columns against base. It fails
// on syntax errors, unknown columns or functions and duplicate titles.
func NewCalculatedView(ctx context.Context, base pivot.View, columns []Column, opts ...Option) (*CalculatedView, error) {
	v := &CalculatedView{
		ctx:        ctx,
		base:       base,
		baseCols:   base.ColumnCount(),
		titles:     map[string]int{},
		registry:   DefaultRegistry(),
		log:        slog.Default(),
		cache:      map[cellKey]cellResult{},
		evaluating: map[cellKey]bool{},
	}
	for _, o := range opts {
		o(v)
	}

	names := make([]string, 0, v.baseCols+len(columns))
	for c := 0; c < v.baseCols; c++ {
		title := base.ColumnTitle(c)
		v.titles[title] = c
		names = append(names, title)
	}
	for i, col := range columns {
		if _, dup := v.titles[col.Name]; dup {
			return nil, fmt.Errorf("column %q already exists", col.Name)
		}
		v.titles[col.Name] = v.baseCols + i
		names = append(names, col.Name)
	}
	for _, col := range columns {
		e, err := Compile(col.Name, col.Formula, names, v.registry)
		if err != nil {
			return nil, err
		}
		v.exprs = append(v.exprs, e)
	}

	if v.strategy == nil {
		v.strategy = NewStrategySelector().SelectView(base)
		v.log.Debug("forecast strategy selected", "strategy", v.strategy.Name())
	}
	return v, nil
}

// Strategy returns the active forecast strategy.
func (v *CalculatedView) Strategy() Strategy { return v.strategy }

func (v *CalculatedView) RowCount() int           { return v.base.RowCount() }
func (v *CalculatedView) ColumnCount() int        { return v.baseCols + len(v.exprs) }
func (v *CalculatedView) RowFieldNames() []string { return v.base.RowFieldNames() }
func (v *CalculatedView) Unwrap() pivot.View      { return v.base }
func (v *CalculatedView) RowValues(row int) []string {
	return v.base.RowValues(row)
}

func (v *CalculatedView) ColumnTitle(col int) string {
	if col < v.baseCols {
		return v.base.ColumnTitle(col)
	}
	return v.exprs[col-v.baseCols].Name
}

// Value returns a base value or evaluates a calculated cell.
func (v *CalculatedView) Value(col, row int) (float64, bool) {
	if col < 0 || col >= v.ColumnCount() || row < 0 || row >= v.RowCount() {
		return 0, false
	}
	if col < v.baseCols {
		return v.base.Value(col, row)
	}

	k := cellKey{col, row}
	if r, ok := v.cache[k]; ok {
		return r.value, r.ok
	}
	if v.evaluating[k] {
		v.log.Warn("circular formula reference", "column", v.ColumnTitle(col), "row", row)
		return 0, false
	}
	v.evaluating[k] = true
	val, ok := v.exprs[col-v.baseCols].Eval(&Row{view: v, index: row}, v.registry)
	delete(v.evaluating, k)

	v.cache[k] = cellResult{value: val, ok: ok}
	return val, ok
}

// ValueOf returns the value of a titled column.
func (v *CalculatedView) ValueOf(column string, row int) (float64, bool) {
	col, ok := v.titles[column]
	if !ok {
		return 0, false
	}
	return v.Value(col, row)
}

// RowValue returns a row dimension.
func (v *CalculatedView) RowValue(row int, field string) (string, bool) {
	if row < 0 || row >= v.RowCount() {
		return "", false
	}
	return pivot.RowValue(v.base, row, field)
}

// Row is the evaluation context handed to function handlers.
type Row struct {
	view  *CalculatedView
	index int
}

// Index returns the row position.
func (r *Row) Index() int { return r.index }

// Value returns a column of the current row.
func (r *Row) Value(column string) (float64, bool) { return r.view.ValueOf(column, r.index) }

// ValueAt returns a column of another row.
func (r *Row) ValueAt(column string, row int) (float64, bool) { return r.view.ValueOf(column, row) }

// Field returns a row dimension of the current row.
func (r *Row) Field(name string) (string, bool) { return r.view.RowValue(r.index, name) }

// Forecast runs the active strategy for column at the current row.
func (r *Row) Forecast(column string) (float64, bool) {
	if _, ok := r.view.titles[column]; !ok {
		return 0, false
	}
	return r.view.strategy.Forecast(Context{Column: column, Row: r.index, Source: r.view})
}

// MarketShare asks the configured provider. Lookup failures are logged and
// make the value absent.
func (r *Row) MarketShare(identifier, year string) (float64, bool) {
	if r.view.market == nil {
		return 0, false
	}
	share, ok, err := r.view.market.MarketShare(r.view.ctx, identifier, year)
	if err != nil {
		r.view.log.Warn("market share lookup failed", "identifier", identifier, "year", year, "error", err)
		return 0, false
	}
	return share, ok
}
