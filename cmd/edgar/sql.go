package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smart_edgar/pkg/core/query"
)

func newSQLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL synthesized for a pivot request",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			model, err := a.model()
			if err != nil {
				return err
			}

			field, err := cmd.Flags().GetString("values-of")
			if err != nil {
				return fmt.Errorf("failed to get values-of flag: %w", err)
			}
			if field != "" {
				like, err := cmd.Flags().GetString("like")
				if err != nil {
					return fmt.Errorf("failed to get like flag: %w", err)
				}
				sql, err := model.FieldValuesSQL(field, like)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sql)
				return nil
			}

			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			synth := query.New(model)
			sql, err := synth.SQL(req)
			if err != nil {
				return err
			}
			a.log.Debug("Synthesized query", "mode", synth.Mode(req))
			fmt.Fprintln(cmd.OutOrStdout(), sql)
			return nil
		},
	}
	addRequestFlags(cmd)
	cmd.Flags().String("values-of", "", "list the distinct values of a field instead")
	cmd.Flags().String("like", "", "pattern restricting --values-of")
	return cmd
}
