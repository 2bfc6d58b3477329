package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myexpense/internal/amqp"
	"myexpense/internal/cache"
	"myexpense/internal/cli"
	apphttp "myexpense/internal/http"
	"myexpense/internal/ledger"
	"myexpense/internal/log"
	"myexpense/internal/middleware/ratelimit"
	"myexpense/internal/session"
	"myexpense/internal/views"
)

func main() {
	cfg, logger := cli.Bootstrap()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	_, _, res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	storeOpts := []ledger.Option{ledger.WithLogger(logger)}
	if cfg.AMQPURL != "" {
		// Mirroring is best effort; the ledger works without a broker.
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err.Error())
		} else {
			defer client.Close()
			storeOpts = append(storeOpts, ledger.WithNotifier(client))
			logger.Info("Change notifications enabled", "exchange", cfg.AMQPExchange)
		}
	}

	store := ledger.NewStore(res.Medium, storeOpts...)
	if _, err := store.Load(ctx); err != nil {
		logger.Error("Failed to load transactions", log.FieldError, err.Error())
		os.Exit(1)
	}

	engine := views.NewEngine(store, cfg.ViewCacheSize, cfg.ViewCacheTTL, logger)
	caches := cache.NewManager(logger)
	caches.Register(engine.Cache())
	caches.StartCleanup(cfg.ViewCacheTTL)
	defer caches.Stop()

	deps := apphttp.Deps{
		Editor:     session.NewController(store, apphttp.RequestConfirmer, logger),
		Dashboards: engine,
		Themes:     ledger.NewThemeStore(res.Prefs, cfg.ThemeKey),
		Loader:     store,
	}
	if res.Sheets != nil {
		deps.Sheets = res.Sheets
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		Logger:    logger,
		RateLimit: ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute},
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err.Error())
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting myexpense server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldRevision, store.Revision())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
