package formula

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
)

// Expression is a compiled formula.
type Expression struct {
	Name string
	Text string

	expr  hclsyntax.Expression
	vars  []string
	funcs []string
}

// Compile parses formula text. Variables must be among columns and
// functions must be registered.
func Compile(name, text string, columns []string, reg *Registry) (*Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(text), name, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse formula %s: %w", name, diags)
	}
	e := &Expression{Name: name, Text: text, expr: expr}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	seen := map[string]bool{}
	for _, tr := range expr.Variables() {
		root := tr.RootName()
		if !known[root] {
			return nil, fmt.Errorf("formula %s: unknown column %q", name, root)
		}
		if !seen[root] {
			seen[root] = true
			e.vars = append(e.vars, root)
		}
	}

	var unknown error
	calls := map[string]bool{}
	hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		call, ok := n.(*hclsyntax.FunctionCallExpr)
		if !ok || calls[call.Name] {
			return nil
		}
		if _, ok := reg.Lookup(call.Name); !ok && unknown == nil {
			unknown = fmt.Errorf("formula %s: unknown function %q", name, call.Name)
		}
		calls[call.Name] = true
		e.funcs = append(e.funcs, call.Name)
		return nil
	})
	if unknown != nil {
		return nil, unknown
	}
	return e, nil
}

// Eval evaluates the expression for row. Absent inputs yield absent
// results; so does arithmetic over an absent value.
func (e *Expression) Eval(row *Row, reg *Registry) (float64, bool) {
	ctx := &hcl.EvalContext{
		Variables: make(map[string]cty.Value, len(e.vars)),
		Functions: make(map[string]function.Function, len(e.funcs)),
	}
	for _, name := range e.vars {
		if v, ok := row.Value(name); ok {
			ctx.Variables[name] = cty.NumberFloatVal(v)
		} else {
			ctx.Variables[name] = cty.NullVal(cty.Number)
		}
	}
	for _, name := range e.funcs {
		h, ok := reg.Lookup(name)
		if !ok {
			return 0, false
		}
		ctx.Functions[name] = bind(h, row)
	}

	val, diags := e.expr.Value(ctx)
	if diags.HasErrors() || !val.IsKnown() || val.IsNull() {
		return 0, false
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil || num.IsNull() {
		return 0, false
	}
	f, _ := num.AsBigFloat().Float64()
	return f, finite(f)
}

func bind(h Handler, row *Row) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{
			Name:      "args",
			Type:      cty.DynamicPseudoType,
			AllowNull: true,
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			in := make([]Arg, len(args))
			for i, a := range args {
				in[i] = toArg(a)
			}
			v, ok := h(row, in)
			if !ok || !finite(v) {
				return cty.NullVal(cty.Number), nil
			}
			return cty.NumberFloatVal(v), nil
		},
	})
}

func toArg(v cty.Value) Arg {
	if v.IsNull() || !v.IsKnown() {
		return Arg{}
	}
	switch v.Type() {
	case cty.String:
		return Text(v.AsString())
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return Num(f)
	case cty.Bool:
		if v.True() {
			return Num(1)
		}
		return Num(0)
	}
	return Arg{}
}
