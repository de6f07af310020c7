// Package company assembles the reported values of companies by date: the
// synthesized query runs against a row source, the result is pivoted on
// parameter names, filtered by period, consolidated per date and extended
// by calculated columns.
package company

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smart_edgar/pkg/core/formula"
	"smart_edgar/pkg/core/pivot"
	"smart_edgar/pkg/core/query"
	"smart_edgar/pkg/core/reporting"
)

// Row dimensions of the loaded table. Consolidation drops the last two.
var (
	rowFields          = []string{"identifier", "date", "form", "numberOfMonths"}
	consolidatedFields = []string{"form", "numberOfMonths"}
)

// Option configures Values.
type Option func(*Values)

// WithParameterNames restricts the columns to the named parameters.
func WithParameterNames(names ...string) Option {
	return func(v *Values) { v.parameterNames = names }
}

// WithUnitRefs restricts the values to the given units. The default is USD.
func WithUnitRefs(units ...string) Option {
	return func(v *Values) { v.unitRefs = units }
}

// WithFilter replaces the row filter. The default keeps the cumulated
// quarterly periods.
func WithFilter(f pivot.RowFilter, consolidated bool) Option {
	return func(v *Values) {
		v.filter = f
		v.consolidated = consolidated
	}
}

// WithFormula appends a calculated column.
func WithFormula(name, text string) Option {
	return func(v *Values) { v.formulas = append(v.formulas, formula.Column{Name: name, Formula: text}) }
}

// WithFormulas appends calculated columns.
func WithFormulas(columns ...formula.Column) Option {
	return func(v *Values) { v.formulas = append(v.formulas, columns...) }
}

// WithoutParameterNames hides columns from the result. Hidden columns can
// still be used by formulas.
func WithoutParameterNames(names ...string) Option {
	return func(v *Values) { v.removed = names }
}

// WithAddMissingParameters controls whether requested parameters that were
// never reported still get an empty column. On by default.
func WithAddMissingParameters(add bool) Option {
	return func(v *Values) { v.addMissing = add }
}

// WithStandardParameters pivots on the standard parameter of the mapping
// table instead of the reported parameter name.
func WithStandardParameters() Option {
	return func(v *Values) { v.columnField = "standardParameter" }
}

// WithTime adds a "time" entry parsed from the date to every ToList row.
func WithTime() Option { return func(v *Values) { v.addTime = true } }

// WithModel replaces the default EDGAR reporting model.
func WithModel(m *reporting.Model) Option { return func(v *Values) { v.model = m } }

// WithFormulaOptions passes options to the calculated view.
func WithFormulaOptions(opts ...formula.Option) Option {
	return func(v *Values) { v.formulaOpts = append(v.formulaOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(v *Values) { v.log = l } }

// Values provides the reported parameter values of one or more companies.
// The view is built on first use and kept.
type Values struct {
	source      pivot.RowSource
	model       *reporting.Model
	identifiers []string

	parameterNames []string
	unitRefs       []string
	columnField    string
	filter         pivot.RowFilter
	consolidated   bool
	addMissing     bool
	addTime        bool
	formulas       []formula.Column
	removed        []string
	formulaOpts    []formula.Option
	log            *slog.Logger

	view pivot.View
}

// New creates the values of the companies with the given identifiers.
func New(source pivot.RowSource, identifiers []string, opts ...Option) *Values {
	v := &Values{
		source:       source,
		model:        reporting.EdgarModel(),
		identifiers:  identifiers,
		unitRefs:     []string{"USD"},
		columnField:  "parameterName",
		filter:       pivot.FilterQuarterlyCumulated,
		consolidated: true,
		addMissing:   true,
		log:          slog.Default(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Request returns the pivot request the values are loaded with.
func (v *Values) Request() query.Request {
	req := query.Request{
		Rows:    rowFields,
		Columns: []string{v.columnField},
		Filters: []query.Filter{{Field: "segment", Values: []string{""}}},
	}
	if len(v.identifiers) > 0 {
		req.Filters = append(req.Filters, query.Filter{Field: "identifier", Values: v.identifiers})
	}
	if len(v.parameterNames) > 0 {
		req.Filters = append(req.Filters, query.Filter{Field: v.columnField, Values: v.parameterNames})
	}
	if len(v.unitRefs) > 0 {
		req.Filters = append(req.Filters, query.Filter{Field: "unitRef", Values: v.unitRefs})
	}
	return req
}

// Table loads the data and returns the resulting view.
func (v *Values) Table(ctx context.Context) (pivot.View, error) {
	if v.view != nil {
		return v.view, nil
	}

	sql, err := query.New(v.model).SQL(v.Request())
	if err != nil {
		return nil, err
	}
	tbl := pivot.NewTable(rowFields, []string{v.columnField}, v.model.ValueField)
	if err := pivot.Load(ctx, tbl, v.source, sql); err != nil {
		return nil, err
	}
	if v.addMissing {
		v.addMissingColumns(tbl)
	}
	v.log.Debug("company values loaded", "identifiers", v.identifiers, "rows", tbl.RowCount(), "columns", tbl.ColumnCount())

	var view pivot.View = tbl
	if v.filter != nil {
		view = pivot.FilterRows(view, v.filter)
	}
	if v.consolidated {
		view = pivot.Consolidate(view, consolidatedFields...)
	}
	if len(v.formulas) > 0 {
		opts := append([]formula.Option{formula.WithLogger(v.log)}, v.formulaOpts...)
		calc, err := formula.NewCalculatedView(ctx, view, v.formulas, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to add formulas: %w", err)
		}
		view = calc
	}
	if len(v.removed) > 0 {
		view = pivot.RemoveColumns(view, v.removed...)
	}
	v.view = view
	return view, nil
}

func (v *Values) addMissingColumns(tbl *pivot.Table) {
	present := map[string]bool{}
	for c := 0; c < tbl.ColumnCount(); c++ {
		present[tbl.ColumnTitle(c)] = true
	}
	added := false
	for _, name := range v.parameterNames {
		if !present[name] {
			tbl.AddColumnKey(name)
			present[name] = true
			added = true
		}
	}
	if added {
		tbl.Sort()
	}
}

// ToList returns one map per row.
func (v *Values) ToList(ctx context.Context) ([]map[string]any, error) {
	view, err := v.Table(ctx)
	if err != nil {
		return nil, err
	}
	out := pivot.ToList(view)
	if v.addTime {
		for _, m := range out {
			s, _ := m["date"].(string)
			if t, err := time.Parse("2006-01-02", s); err == nil {
				m["time"] = t
			}
		}
	}
	return out, nil
}

// Size returns the number of rows.
func (v *Values) Size(ctx context.Context) (int, error) {
	view, err := v.Table(ctx)
	if err != nil {
		return 0, err
	}
	return view.RowCount(), nil
}

// ParameterNames returns the column titles of the result.
func (v *Values) ParameterNames(ctx context.Context) ([]string, error) {
	view, err := v.Table(ctx)
	if err != nil {
		return nil, err
	}
	return pivot.ColumnTitles(view), nil
}
