package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/quiltplan/pkg/application/services/daycycle"
	"github.com/vsinha/quiltplan/pkg/application/services/scheduling"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
	"github.com/vsinha/quiltplan/pkg/infrastructure/config"
	"github.com/vsinha/quiltplan/pkg/infrastructure/credentials"
	"github.com/vsinha/quiltplan/pkg/infrastructure/events"
	"github.com/vsinha/quiltplan/pkg/infrastructure/logging"
	"github.com/vsinha/quiltplan/pkg/infrastructure/metrics"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/firestore"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/sheets"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/quiltplan/pkg/interfaces/cli/output"
)

// app is everything a command needs, built from the configuration
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      repositories.Store
	planner    *scheduling.Planner
	journal    *events.Journal
	metrics    *metrics.Collector
	resolver   *credentials.Resolver
	printer    *output.Printer
	closeStore func() error
}

func newApp(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	printer, err := output.NewPrinter(cmd.OutOrStdout(), cfg.PeriodUnit(), opts.format)
	if err != nil {
		return nil, err
	}

	rates, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	usage, err := memory.NewUsageRepository(rates)
	if err != nil {
		return nil, fmt.Errorf("invalid usage rates: %w", err)
	}
	engine, err := planning.NewEngine(cfg.Policy())
	if err != nil {
		return nil, fmt.Errorf("invalid planning policy: %w", err)
	}

	resolver := credentials.NewResolver(nil)
	store, err := OpenStore(ctx, cfg, resolver, logger)
	if err != nil {
		return nil, err
	}

	journal := events.NewJournal(logger)
	journal.Subscribe(events.NewAuditHandler(logger), events.AllEventTypes()...)
	collector := metrics.NewCollector()
	collector.Subscribe(journal)

	logger.Debug("configuration loaded",
		"config", opts.configPath,
		"backend", cfg.Store.Backend,
		"period_unit", cfg.PeriodUnit().String())

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		planner:    scheduling.NewPlanner(engine, store, usage, logger),
		journal:    journal,
		metrics:    collector,
		resolver:   resolver,
		printer:    printer,
		closeStore: store.Close,
	}, nil
}

func (a *app) controller() *daycycle.Controller {
	return daycycle.NewController(a.planner, a.store, a.journal, a.logger, daycycle.Options{
		Unit:         a.cfg.PeriodUnit(),
		StartPeriod:  entities.Period(a.cfg.Planning.StartPeriod),
		InitialStock: a.cfg.InitialStock(),
		Now:          time.Now,
	})
}

// Close releases the store; safe to call more than once
func (a *app) Close() error {
	if a.closeStore == nil {
		return nil
	}
	closeFn := a.closeStore
	a.closeStore = nil
	return closeFn()
}

// OpenStore connects to the configured backend
func OpenStore(ctx context.Context, cfg *config.Config, resolver *credentials.Resolver, logger *slog.Logger) (repositories.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil

	case config.BackendCSV:
		fs, err := csv.NewFileStore(cfg.Store.CSV.Dir)
		if err != nil {
			return repositories.Store{}, err
		}
		return fs.Store(), nil

	case config.BackendSQLite:
		s, err := sqlstore.OpenSQLite(ctx, cfg.Store.SQLite.Path, logger)
		if err != nil {
			return repositories.Store{}, err
		}
		return s.Store(), nil

	case config.BackendPostgres:
		s, err := sqlstore.OpenPostgres(ctx, cfg.Store.Postgres.DSN, logger)
		if err != nil {
			return repositories.Store{}, err
		}
		return s.Store(), nil

	case config.BackendSheets:
		opts, err := resolver.ClientOptions(ctx, cfg.Credentials)
		if err != nil {
			return repositories.Store{}, err
		}
		worksheets := sheets.Worksheets{
			Demand:   cfg.Store.Sheets.Demand,
			Stock:    cfg.Store.Sheets.Stock,
			Finished: cfg.Store.Sheets.Finished,
		}
		s, err := sheets.Open(ctx, cfg.Store.Sheets.SpreadsheetID, worksheets, logger, opts...)
		if err != nil {
			return repositories.Store{}, err
		}
		return s.Store(), nil

	case config.BackendFirestore:
		opts, err := resolver.ClientOptions(ctx, cfg.Credentials)
		if err != nil {
			return repositories.Store{}, err
		}
		s, err := firestore.Open(ctx, cfg.Store.Firestore.ProjectID, cfg.Store.Firestore.Prefix, logger, opts...)
		if err != nil {
			return repositories.Store{}, err
		}
		return s.Store(), nil

	default:
		return repositories.Store{}, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
