package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smart_edgar/pkg/core/formula"
	"smart_edgar/pkg/core/query"
)

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("rows", []string{"identifier", "date"}, "row fields")
	cmd.Flags().StringSlice("columns", []string{"parameterName"}, "column fields")
	cmd.Flags().String("value", "", "value field (default: the model's value field)")
	cmd.Flags().StringArray("filter", nil, "field=value[,value...] restricting a field; * matches any text")
	cmd.Flags().StringArray("exclude", nil, "field=value[,value...] excluding values of a field")
}

func requestFromFlags(cmd *cobra.Command) (query.Request, error) {
	var req query.Request
	var err error
	if req.Rows, err = cmd.Flags().GetStringSlice("rows"); err != nil {
		return req, fmt.Errorf("failed to get rows flag: %w", err)
	}
	if req.Columns, err = cmd.Flags().GetStringSlice("columns"); err != nil {
		return req, fmt.Errorf("failed to get columns flag: %w", err)
	}
	if req.Value, err = cmd.Flags().GetString("value"); err != nil {
		return req, fmt.Errorf("failed to get value flag: %w", err)
	}
	for _, flag := range []string{"filter", "exclude"} {
		specs, err := cmd.Flags().GetStringArray(flag)
		if err != nil {
			return req, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		for _, spec := range specs {
			f, err := parseFilter(spec)
			if err != nil {
				return req, err
			}
			f.Exclude = flag == "exclude"
			req.Filters = append(req.Filters, f)
		}
	}
	return req, nil
}

// parseFilter reads "field=a,b". "field=" filters on the empty value.
func parseFilter(spec string) (query.Filter, error) {
	field, values, ok := strings.Cut(spec, "=")
	if !ok || field == "" {
		return query.Filter{}, fmt.Errorf("invalid filter %q, expected field=value", spec)
	}
	return query.Filter{Field: strings.TrimSpace(field), Values: strings.Split(values, ",")}, nil
}

// parseFormulas reads "Name=expression" column definitions.
func parseFormulas(specs []string) ([]formula.Column, error) {
	out := make([]formula.Column, 0, len(specs))
	for _, spec := range specs {
		name, text, ok := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("invalid formula %q, expected Name=expression", spec)
		}
		out = append(out, formula.Column{Name: name, Formula: text})
	}
	return out, nil
}
