package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smart_edgar/pkg/core/company"
	"smart_edgar/pkg/core/formula"
	"smart_edgar/pkg/core/pivot"
	"smart_edgar/pkg/core/query"
	"smart_edgar/pkg/core/report"
)

var periodFilters = map[string]pivot.RowFilter{
	"cumulated": pivot.FilterQuarterlyCumulated,
	"quarterly": pivot.FilterQuarterly,
	"yearly":    pivot.FilterYearly,
	"all":       nil,
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a pivot request against the store and render the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}
			formulaSpecs, err := cmd.Flags().GetStringArray("formula")
			if err != nil {
				return fmt.Errorf("failed to get formula flag: %w", err)
			}
			companies, err := cmd.Flags().GetStringSlice("company")
			if err != nil {
				return fmt.Errorf("failed to get company flag: %w", err)
			}
			period, err := cmd.Flags().GetString("period")
			if err != nil {
				return fmt.Errorf("failed to get period flag: %w", err)
			}
			if period == "" {
				period = "all"
				if len(companies) > 0 {
					period = "cumulated"
				}
			}
			filter, ok := periodFilters[period]
			if !ok {
				return fmt.Errorf("invalid period: %s", period)
			}
			columns, err := parseFormulas(formulaSpecs)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			st, closeStore, err := a.openStore(ctx)
			if err != nil {
				a.log.Error("Failed to open store", "error", err)
				return err
			}
			defer closeStore()

			model, err := a.model()
			if err != nil {
				return err
			}
			share := formula.NewCachedMarketShare(formula.SectorMarketShare{Source: st}, a.cfg.MarketShareTTL)
			formulaOpts := []formula.Option{formula.WithLogger(a.log), formula.WithMarketShare(share)}

			var view pivot.View
			if len(companies) > 0 {
				consolidate, err := cmd.Flags().GetBool("consolidate")
				if err != nil {
					return fmt.Errorf("failed to get consolidate flag: %w", err)
				}
				params, err := cmd.Flags().GetStringSlice("parameters")
				if err != nil {
					return fmt.Errorf("failed to get parameters flag: %w", err)
				}
				vals := company.New(st, companies,
					company.WithModel(model),
					company.WithFilter(filter, consolidate),
					company.WithParameterNames(params...),
					company.WithFormulas(columns...),
					company.WithFormulaOptions(formulaOpts...),
					company.WithLogger(a.log),
				)
				view, err = vals.Table(ctx)
				if err != nil {
					a.log.Error("Failed to load company values", "error", err)
					return err
				}
			} else {
				req, err := requestFromFlags(cmd)
				if err != nil {
					return err
				}
				sql, err := query.New(model).SQL(req)
				if err != nil {
					return err
				}
				valueField := req.Value
				if valueField == "" {
					valueField = model.ValueField
				}
				tbl := pivot.NewTable(req.Rows, req.Columns, valueField)
				if err := pivot.Load(ctx, tbl, st, sql); err != nil {
					a.log.Error("Failed to run query", "error", err)
					return err
				}
				view = tbl
				if filter != nil {
					view = pivot.FilterRows(view, filter)
				}
				if len(columns) > 0 {
					view, err = formula.NewCalculatedView(ctx, view, columns, formulaOpts...)
					if err != nil {
						return err
					}
				}
			}

			return report.Write(cmd.OutOrStdout(), view, report.Format(format))
		},
	}
	addRequestFlags(cmd)
	cmd.Flags().StringP("format", "f", string(report.FormatText), "output format: text, csv, markdown or html")
	cmd.Flags().StringArray("formula", nil, "calculated column as Name=expression")
	cmd.Flags().StringSlice("company", nil, "company identifiers; reports values by date per company")
	cmd.Flags().StringSlice("parameters", nil, "parameter names reported with --company")
	cmd.Flags().String("period", "", "row filter: cumulated, quarterly, yearly or all (default: cumulated with --company, else all)")
	cmd.Flags().Bool("consolidate", true, "merge the periods of one date with --company")
	return cmd
}
