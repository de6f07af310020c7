package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"smart_edgar/pkg/core/xbrl"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse PATH...",
		Short: "Parse filings and print a summary per document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			facts, err := cmd.Flags().GetBool("facts")
			if err != nil {
				return fmt.Errorf("failed to get facts flag: %w", err)
			}
			text, err := cmd.Flags().GetBool("text")
			if err != nil {
				return fmt.Errorf("failed to get text flag: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			loader := xbrl.NewLoader(a.cfg.Workers, a.parseOptions(facts))
			defer loader.Close()

			docs, err := loader.LoadFiles(ctx, files)
			if err != nil {
				a.log.Error("Failed to parse filings", "error", err)
				return err
			}
			printDocuments(os.Stdout, docs)
			if text {
				for _, doc := range docs {
					for _, tv := range xbrl.TextValues(doc, true) {
						fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", doc.Filing.File, tv.ParameterName, tv.Value)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("facts", true, "treat unknown elements below the root as value facts")
	cmd.Flags().Bool("text", false, "print the text and markup values")
	return cmd
}

func printDocuments(w io.Writer, docs []*xbrl.Document) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"File", "Form", "Company", "Number", "Date", "Facts", "Values", "Warnings"})
	for _, doc := range docs {
		f := doc.Filing
		table.Append([]string{
			f.File, doc.Form(), f.CompanyName, f.CompanyNumber, f.Date,
			strconv.Itoa(doc.Graph.Len()),
			strconv.Itoa(len(xbrl.Records(doc))),
			strconv.Itoa(len(doc.Warnings())),
		})
	}
	table.Render()
}
