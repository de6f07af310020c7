package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"smart_edgar/pkg/core/store"
	"smart_edgar/pkg/core/xbrl"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [PATH...]",
		Short: "Parse filings and store their values",
		Long:  "Parse filings and store their values. Directories are searched for .xml files; without arguments the configured data directory is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{a.cfg.DataDir}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			st, closeStore, err := a.openStore(ctx)
			if err != nil {
				a.log.Error("Failed to open store", "error", err)
				return err
			}
			defer closeStore()

			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			n, err := a.loadFiles(ctx, st, files)
			if err != nil {
				a.log.Error("Failed to load filings", "error", err)
				return err
			}
			a.log.Info("Filings loaded", "files", len(files), "values", n)
			return nil
		},
	}
	return cmd
}

// collectFiles expands directories into the .xml files below them.
func collectFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", p, err)
		}
	}
	slices.Sort(out)
	return out, nil
}

// loadFiles parses files in parallel and stores the values of the filings
// whose form matches the configured forms.
func (a *app) loadFiles(ctx context.Context, st store.Store, files []string) (int64, error) {
	if len(files) == 0 {
		return 0, nil
	}
	forms, err := a.cfg.Forms()
	if err != nil {
		return 0, err
	}

	loader := xbrl.NewLoader(a.cfg.Workers, a.parseOptions(true))
	defer loader.Close()
	docs, err := loader.LoadFiles(ctx, files)
	if err != nil {
		return 0, err
	}

	var records []xbrl.ValueRecord
	companies := map[string]store.Company{}
	for _, doc := range docs {
		if !forms.MatchString(doc.Form()) {
			a.log.Debug("Skipping filing", "file", doc.Filing.File, "form", doc.Form())
			continue
		}
		recs := xbrl.Records(doc)
		records = append(records, recs...)
		for _, r := range recs {
			if _, ok := companies[r.Identifier]; !ok {
				companies[r.Identifier] = store.Company{Identifier: r.Identifier, CompanyName: doc.Filing.CompanyName}
			}
		}
	}

	n, err := st.SaveRecords(ctx, records)
	if err != nil {
		return 0, err
	}
	list := make([]store.Company, 0, len(companies))
	for _, c := range companies {
		list = append(list, c)
	}
	if err := st.SaveCompanies(ctx, list); err != nil {
		return n, err
	}
	if err := st.SaveMappings(ctx, store.DefaultMappings()); err != nil {
		return n, err
	}
	return n, nil
}
