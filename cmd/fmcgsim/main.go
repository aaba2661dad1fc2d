// Command fmcgsim synthesizes FMCG distribution sales data and loads it into
// an analytical warehouse.
//
// Subcommands:
//
//	init       bootstrap dimensions and backfill the full sales history
//	daily      synthesize one day of sales against the daily target
//	reconcile  advance open delivery lifecycles
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fmcgsim/internal/config"
	"fmcgsim/internal/dimgen"
	"fmcgsim/internal/engine"
	"fmcgsim/internal/export"
	"fmcgsim/internal/sink"
	"fmcgsim/internal/sink/postgres"
	"fmcgsim/internal/sink/sqlite"
	"fmcgsim/internal/telemetry"
	"fmcgsim/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "fmcgsim:", err)
		exitFunc(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("fmcgsim", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	command := fs.Arg(0)
	if command == "" {
		command = "daily"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.store.Close() }()

	if cfg.MetricsAddr != "" {
		go app.serveMetrics(cfg.MetricsAddr)
	}

	switch command {
	case "init":
		return app.initRun(ctx)
	case "daily":
		return app.dailyRun(ctx)
	case "reconcile":
		_, err := app.reconciler.Reconcile(ctx)
		return err
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// app bundles the wired components for one process invocation.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	metrics    *telemetry.Metrics
	store      sink.Sink
	guard      *sink.Guard
	alloc      *engine.Allocator
	rng        *rand.Rand
	sampler    *engine.Sampler
	synth      *engine.Synthesizer
	gen        *dimgen.Generator
	engine     *engine.Engine
	reconciler *engine.Reconciler
	exporter   export.Store
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := openSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	registry := prometheus.NewRegistry()
	metrics := telemetry.New(registry)
	alloc := engine.NewAllocator()
	sampler := engine.NewSampler(rng, engine.FallbackPolicy(cfg.Fallback))
	synth := engine.NewSynthesizer(rng, sampler, alloc, nil)
	guard := sink.NewGuard(store, logger, metrics)
	eng := engine.New(cfg.Schedule, rng, sampler, synth, guard, engine.Options{
		Logger:  logger,
		Metrics: metrics,
	})
	reconciler := engine.NewReconciler(store, guard, alloc, logger, nil)

	exporter, err := openExporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		metrics:    metrics,
		store:      store,
		guard:      guard,
		alloc:      alloc,
		rng:        rng,
		sampler:    sampler,
		synth:      synth,
		gen:        dimgen.New(rng, alloc, nil),
		engine:     eng,
		reconciler: reconciler,
		exporter:   exporter,
	}, nil
}

func openSink(ctx context.Context, cfg config.Config) (sink.Sink, error) {
	switch cfg.Sink {
	case "sqlite":
		return sqlite.Open(ctx, cfg.SQLitePath)
	case "postgres":
		return postgres.Open(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

func openExporter(ctx context.Context, cfg config.Config, logger *zap.Logger) (export.Store, error) {
	if os.Getenv("FMCGSIM_EXPORT_S3_BUCKET") != "" {
		s, err := export.OpenS3FromEnv(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("exporting run artifacts to s3")
		return s, nil
	}
	return export.NewFS(cfg.ExportDir)
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("metrics server stopped", zap.Error(err))
	}
}

// initRun bootstraps the dimension tables and backfills sales history from the
// configured start date through yesterday.
func (a *app) initRun(ctx context.Context) error {
	start, err := a.cfg.Start()
	if err != nil {
		return err
	}
	a.logger.Info("bootstrapping dimensions",
		zap.Int("employees", a.cfg.Employees),
		zap.Int("products", a.cfg.Products),
		zap.Int("retailers", a.cfg.Retailers),
		zap.Int("campaigns", a.cfg.Campaigns))

	// Roughly half the workforce history is already terminated, giving
	// backdated transactions valid staff to reference.
	employees := a.gen.HistoricalEmployees(a.cfg.Employees*2, a.cfg.Employees)
	products := a.gen.Products(a.cfg.Products)
	retailers := a.gen.Retailers(a.cfg.Retailers)
	campaigns := a.gen.Campaigns(a.cfg.Campaigns)

	if _, err := a.store.PersistEmployees(ctx, employees, sink.WriteTruncate); err != nil {
		return err
	}
	if _, err := a.store.PersistProducts(ctx, products, sink.WriteTruncate); err != nil {
		return err
	}
	if _, err := a.store.PersistRetailers(ctx, retailers, sink.WriteTruncate); err != nil {
		return err
	}
	if _, err := a.store.PersistCampaigns(ctx, campaigns, sink.WriteTruncate); err != nil {
		return err
	}

	pools := domain.Pools{Employees: employees, Products: products, Retailers: retailers, Campaigns: campaigns}
	end := domain.DayOf(time.Now()).AddDate(0, 0, -1)
	summary, err := a.engine.Run(ctx, pools, a.cfg.InitialAmount, start, end)
	if err != nil {
		return err
	}
	return a.exportSummary(ctx, "init", summary)
}

// dailyRun loads the dimension pools from the warehouse, tops up the catalog
// and workforce, synthesizes today's transactions and reconciles deliveries.
func (a *app) dailyRun(ctx context.Context) error {
	if err := a.restoreKeyFloors(ctx); err != nil {
		return err
	}
	pools, err := a.store.LoadPools(ctx)
	if err != nil {
		return err
	}
	if len(pools.Employees) == 0 || len(pools.Products) == 0 || len(pools.Retailers) == 0 {
		return fmt.Errorf("dimension tables are empty, run init first")
	}

	// The business keeps moving: a few product launches and hires per day.
	newProducts := a.gen.Products(1 + a.rng.IntN(5))
	newHires := a.gen.Employees(2 + a.rng.IntN(11))
	if _, err := a.store.PersistProducts(ctx, newProducts, sink.WriteAppend); err != nil {
		return err
	}
	if _, err := a.store.PersistEmployees(ctx, newHires, sink.WriteAppend); err != nil {
		return err
	}
	pools.Products = append(pools.Products, newProducts...)
	pools.Employees = append(pools.Employees, newHires...)
	a.logger.Info("dimension growth applied",
		zap.Int("new_products", len(newProducts)),
		zap.Int("new_hires", len(newHires)))

	today := domain.DayOf(time.Now())
	collector := &collectingWriter{inner: a.guard}
	dayEngine := engine.New(a.cfg.Schedule, a.rng, a.sampler, a.synth, collector, engine.Options{
		Logger:  a.logger,
		Metrics: a.metrics,
	})
	summary, err := dayEngine.Run(ctx, pools, a.cfg.DailyAmount, today, today)
	if err != nil {
		return err
	}
	if _, err := a.reconciler.Reconcile(ctx); err != nil {
		return err
	}

	csvKey := fmt.Sprintf("daily/fact_sales_%s.csv", today.Format("20060102"))
	if err := export.WriteTransactionsCSV(ctx, a.exporter, csvKey, collector.txs); err != nil {
		return err
	}
	a.logger.Info("daily extract exported", zap.String("key", csvKey), zap.Int("rows", len(collector.txs)))
	return a.exportSummary(ctx, "daily", summary)
}

// collectingWriter tees persisted transactions so the daily run can export a
// CSV extract of exactly what it generated.
type collectingWriter struct {
	inner engine.TransactionWriter
	txs   []domain.SalesTransaction
}

func (c *collectingWriter) PersistTransactions(ctx context.Context, txs []domain.SalesTransaction) (int, error) {
	n, err := c.inner.PersistTransactions(ctx, txs)
	if err != nil {
		return n, err
	}
	c.txs = append(c.txs, txs...)
	return n, nil
}

// restoreKeyFloors resumes allocator counters above the keys already in the
// warehouse so repeated runs never reissue a surrogate key.
func (a *app) restoreKeyFloors(ctx context.Context) error {
	floors := map[domain.EntityType]string{
		domain.EntityEmployee:       sink.TableEmployees,
		domain.EntityProduct:        sink.TableProducts,
		domain.EntityRetailer:       sink.TableRetailers,
		domain.EntityCampaign:       sink.TableCampaigns,
		domain.EntitySale:           sink.TableSales,
		domain.EntityDeliveryUpdate: sink.TableDeliveryUpdates,
	}
	for entity, table := range floors {
		max, err := a.store.MaxKey(ctx, table)
		if err != nil {
			if errors.Is(err, sink.ErrTableNotFound) {
				continue
			}
			return err
		}
		a.alloc.SetFloor(entity, max)
	}
	return nil
}

func (a *app) exportSummary(ctx context.Context, kind string, summary domain.RunSummary) error {
	key, err := export.WriteRunSummary(ctx, a.exporter, kind, time.Now(), summary)
	if err != nil {
		return err
	}
	a.logger.Info("run summary exported", zap.String("key", key))
	return nil
}
