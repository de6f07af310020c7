// Package formula evaluates calculated columns over a pivot view. Formula
// text uses the HCL expression syntax; function calls resolve against a
// Registry of typed handlers that see the row being evaluated.
package formula

import (
	"sort"
	"strings"
)

// Arg is one evaluated function argument. String literals name columns;
// numbers are used as they are. An absent value has neither.
type Arg struct {
	Text     string
	Number   float64
	IsNumber bool
	IsText   bool
}

// Num returns a numeric argument.
func Num(v float64) Arg { return Arg{Number: v, IsNumber: true} }

// Text returns a textual argument.
func Text(s string) Arg { return Arg{Text: s, IsText: true} }

// resolve turns an argument into a number: a number stands for itself, a
// text names a column of the current row.
func (a Arg) resolve(row *Row) (float64, bool) {
	switch {
	case a.IsNumber:
		return a.Number, true
	case a.IsText:
		return row.Value(a.Text)
	}
	return 0, false
}

func (a Arg) int(def int) int {
	if a.IsNumber {
		return int(a.Number)
	}
	return def
}

// Handler computes a function result for the current row. ok == false means
// the result is not computable.
type Handler func(row *Row, args []Arg) (float64, bool)

// Registry maps function names to handlers. Names are case-insensitive.
type Registry struct {
	funcs map[string]Handler
	names map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Handler{}, names: map[string]string{}}
}

// DefaultRegistry returns a registry holding the built-in functions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("coalesce", Coalesce)
	r.Register("value", ValueOf)
	r.Register("lag", Lag)
	r.Register("changePercent", ChangePercent)
	r.Register("forecast", Forecast)
	r.Register("surprisePercent", SurprisePercent)
	r.Register("marketShare", MarketShare)
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, h Handler) {
	key := strings.ToLower(name)
	r.funcs[key] = h
	r.names[key] = name
}

// Lookup finds a function by name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.funcs[strings.ToLower(name)]
	return h, ok
}

// Names lists the registered function names as registered, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// BUILT-IN FUNCTIONS
// =============================================================================

// Coalesce returns the first available argument.
// coalesce("NetIncomeLoss", "OperatingIncomeLoss", 0)
func Coalesce(row *Row, args []Arg) (float64, bool) {
	for _, a := range args {
		if v, ok := a.resolve(row); ok {
			return v, true
		}
	}
	return 0, false
}

// ValueOf returns a column of the current row, for titles that are not
// valid identifiers.
// value("Revenue 2021")
func ValueOf(row *Row, args []Arg) (float64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	return args[0].resolve(row)
}

// Lag returns a column value n rows away; n defaults to -1 (the prior row).
// lag("Revenues", -4)
func Lag(row *Row, args []Arg) (float64, bool) {
	if len(args) < 1 || !args[0].IsText {
		return 0, false
	}
	offset := -1
	if len(args) > 1 {
		offset = args[1].int(offset)
	}
	return row.ValueAt(args[0].Text, row.Index()+offset)
}

// ChangePercent is the percentage change of a column against the row at the
// offset (default -1).
// changePercent("Revenues", -4)
func ChangePercent(row *Row, args []Arg) (float64, bool) {
	if len(args) < 1 || !args[0].IsText {
		return 0, false
	}
	cur, ok := row.Value(args[0].Text)
	if !ok {
		return 0, false
	}
	prior, ok := Lag(row, args)
	if !ok || prior == 0 {
		return 0, false
	}
	return (cur - prior) / prior * 100, true
}

// Forecast invokes the active forecast strategy for a column.
// forecast("Revenues")
func Forecast(row *Row, args []Arg) (float64, bool) {
	if len(args) != 1 || !args[0].IsText {
		return 0, false
	}
	return row.Forecast(args[0].Text)
}

// SurprisePercent is the deviation of the actual value from its forecast,
// in percent of the forecast.
// surprisePercent("Revenues")
func SurprisePercent(row *Row, args []Arg) (float64, bool) {
	f, ok := Forecast(row, args)
	if !ok || f == 0 {
		return 0, false
	}
	actual, ok := row.Value(args[0].Text)
	if !ok {
		return 0, false
	}
	return (actual - f) / f * 100, true
}

// MarketShare looks up the market share of the row's company for the year
// of the row's date.
// marketShare()
func MarketShare(row *Row, _ []Arg) (float64, bool) {
	id, ok := row.Field("identifier")
	if !ok || id == "" {
		return 0, false
	}
	date, ok := row.Field("date")
	if !ok || len(date) < 4 {
		return 0, false
	}
	return row.MarketShare(id, date[:4])
}
