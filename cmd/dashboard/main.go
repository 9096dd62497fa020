// File: cmd/dashboard/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/application"
	"jdcrawler-dashboard/internal/config"
	"jdcrawler-dashboard/internal/domain/ports/adapter"
	"jdcrawler-dashboard/internal/domain/ports/gateway"
	tele "jdcrawler-dashboard/internal/infra/adapters/telegram"
	"jdcrawler-dashboard/internal/infra/backend"
	"jdcrawler-dashboard/internal/infra/clock"
	"jdcrawler-dashboard/internal/infra/i18n"
	"jdcrawler-dashboard/internal/infra/logging"
	"jdcrawler-dashboard/internal/infra/metrics"
	"jdcrawler-dashboard/internal/infra/querycache"
	red "jdcrawler-dashboard/internal/infra/redis"
	"jdcrawler-dashboard/internal/infra/sched"
	"jdcrawler-dashboard/internal/infra/scheduler"
	"jdcrawler-dashboard/internal/infra/web"
	"jdcrawler-dashboard/internal/infra/worker"
	"jdcrawler-dashboard/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "console logs")
	demo := flag.Bool("demo", false, "serve seeded in-memory data instead of the crawler backend")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath, *devMode, *demo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	if err := run(ctx, cfg, *demo, logger); err != nil {
		logger.Fatal().Err(err).Msg("dashboard stopped")
	}
}

// loadConfig falls back to defaults in demo mode when no file exists.
func loadConfig(path string, dev, demo bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(path, dev)
	if err == nil || !demo {
		return cfg, err
	}
	return config.Parse([]byte("backend:\n  base_url: http://demo.invalid\n"), dev)
}

func run(ctx context.Context, cfg *config.Config, demo bool, logger *zerolog.Logger) error {
	// ---- Gateway ----
	var gw gateway.Gateway
	if demo {
		gw = newDemoGateway()
		logger.Warn().Msg("demo mode: serving seeded in-memory data")
	} else {
		client, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
		if err != nil {
			return fmt.Errorf("backend client: %w", err)
		}
		gw = client
	}

	// ---- Redis (optional) ----
	cacheOpts := []querycache.Option{
		querycache.WithLogger(logger),
		querycache.WithStaleTime(cfg.Sync.StaleTime),
		querycache.WithContext(ctx),
	}
	var limiter tele.Limiter
	if cfg.Redis.URL != "" {
		rc, err := red.Dial(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, starting cold")
		} else {
			defer rc.Close()
			cacheOpts = append(cacheOpts, querycache.WithPersister(red.NewSnapshotStore(rc, cfg.Redis.TTL)))
			limiter = red.NewAlertBudget(rc)
		}
	}
	cache := querycache.New(cacheOpts...)
	defer cache.Close()

	// ---- Use cases ----
	reader := usecase.NewQueryService(gw, cache, cfg.Backend.PageSize, logger)
	mut := usecase.NewMutationCoordinator(gw, cache, logger)
	search := usecase.NewSearchController(clock.Real, cfg.Sync.Debounce)
	tracker := usecase.NewAnalysisTracker(reader, mut, cfg.Sync.AnalysisRecheckInterval, cfg.Sync.AnalysisMaxRechecks, logger)

	// ---- Notifier ----
	notifier := newNotifier(cfg.Telegram, limiter, logger)

	// ---- Workers ----
	monitor := sched.NewCrawlMonitor(reader, clock.Real, logger)
	newJobs := sched.NewNewJobsWorker(reader, notifier, logger)

	prefetch := worker.NewPool("prefetch", 2, 16, logger)
	prefetch.Start(ctx)
	defer prefetch.Stop()

	dash := application.NewDashboard(ctx, application.Deps{
		Reader:   reader,
		Mutator:  mut,
		Search:   search,
		Analysis: tracker,
		Crawl:    monitor,
		Cache:    cache,
		Prefetch: prefetch,
	}, logger)
	defer dash.Close()

	s := scheduler.New(logger)
	tasks := []scheduler.Task{
		{Name: "crawl_status", Every: cfg.Sync.CrawlStatusInterval, RunFirst: true, Run: monitor.Poll},
		{Name: "new_jobs", Every: cfg.Sync.NewJobsInterval, RunFirst: true, Run: func(ctx context.Context) error {
			_, err := newJobs.Check(ctx)
			return err
		}},
		{Name: "countdown", Every: cfg.Sync.CountdownTick, Run: func(context.Context) error {
			monitor.Tick(clock.Real.Now())
			return nil
		}},
	}
	for _, t := range tasks {
		if err := s.Add(t); err != nil {
			return fmt.Errorf("schedule %s: %w", t.Name, err)
		}
	}
	s.Start(ctx)
	defer s.Stop()

	// ---- View server ----
	srv := web.NewServer(dash, cfg.HTTP.Port, cfg.Backend.Timeout+5*time.Second, logger)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("view server: %w", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("view server shutdown")
	}
	return nil
}

func newNotifier(cfg config.TelegramConfig, limiter tele.Limiter, logger *zerolog.Logger) adapter.Notifier {
	if cfg.Token == "" {
		return tele.NewNoopNotifier(logger)
	}
	tr, err := i18n.Load(cfg.Lang)
	if err != nil {
		logger.Warn().Err(err).Str("lang", cfg.Lang).Msg("unknown alert language, using English")
		tr = i18n.Default()
	}
	bot, err := tele.NewBotNotifier(cfg, tr, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram disabled")
		return tele.NewNoopNotifier(logger)
	}
	if limiter == nil {
		return bot
	}
	return tele.NewThrottledNotifier(bot, limiter, red.AlertKey("telegram"), cfg.AlertLimit, cfg.AlertWindow, logger)
}
