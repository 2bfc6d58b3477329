package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myexpense/internal/amqp"
	"myexpense/internal/backend"
	"myexpense/internal/cli"
	"myexpense/internal/log"
	"myexpense/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(log.ComponentWorker)

	if cfg.MirrorBackend == "" {
		logger.Error("MIRROR_BACKEND must be set to run the worker")
		os.Exit(1)
	}

	logger.Info("Starting myexpense-worker",
		log.FieldBackend, cfg.DataBackend,
		"mirror", cfg.MirrorBackend)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// The local medium is the authoritative set the mirror is reconciled from.
	factory, bcfg, local := cli.InitBackend(ctx, logger, cfg)
	defer local.Close()

	remote, err := factory.CreateRemote(ctx, bcfg, backend.BackendType(cfg.MirrorBackend))
	if err != nil {
		logger.Error("Failed to initialize mirror backend", log.FieldError, err.Error())
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	mirror := worker.NewMirrorWorker(remote, local.Medium, logger)

	// Catch up on anything published while the worker was down.
	if err := mirror.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", log.FieldError, err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeChanges(gctx, mirror.HandleChange)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.MirrorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := mirror.Reconcile(gctx); err != nil {
					logger.Error("Periodic reconcile failed", log.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
