package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"smart_edgar/pkg/core/config"
	"smart_edgar/pkg/core/reporting"
	"smart_edgar/pkg/core/store"
	"smart_edgar/pkg/core/xbrl"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "edgar",
		Short:        "Parse EDGAR XBRL filings and report on the extracted values.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		newParseCmd(),
		newLoadCmd(),
		newSQLCmd(),
		newReportCmd(),
		newWatchCmd(),
	)
	return rootCmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// app holds what every command needs: configuration and logger.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	envFile, err := cmd.Root().PersistentFlags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}

	log := newLogger(verbose)
	cfg, err := config.Load(path, envFile)
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) parseOptions(facts bool) xbrl.Options {
	return xbrl.Options{
		FactsDocument:     facts,
		MaxFieldSize:      a.cfg.MaxFieldSize,
		ConvertHTMLToText: a.cfg.ConvertHTML,
		Logger:            a.log,
	}
}

func (a *app) model() (*reporting.Model, error) {
	if a.cfg.SchemaFile == "" {
		return reporting.EdgarModel(), nil
	}
	return reporting.LoadModel(a.cfg.SchemaFile)
}

// openStore connects to PostgreSQL when a database URL is configured and
// falls back to the embedded SQLite database.
func (a *app) openStore(ctx context.Context) (store.Store, func(), error) {
	if a.cfg.DatabaseURL != "" {
		if err := store.InitDB(ctx, a.cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		pg := store.NewPGSource(nil, a.log)
		if err := pg.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		a.log.Debug("Using postgres store")
		return pg, store.Close, nil
	}

	db, err := store.OpenSQLite(ctx, a.cfg.SQLitePath, a.log)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug("Using sqlite store", "path", a.cfg.SQLitePath)
	return db, func() { db.Close() }, nil
}
