package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/infra"
	"github.com/walletd/walletd/internal/ledger"
	"github.com/walletd/walletd/internal/logging"
	"github.com/walletd/walletd/internal/queue"
	"github.com/walletd/walletd/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	engine := ledger.NewEngine(ledger.NewPostgresStore(db))
	opQueue := queue.New(rdb, cfg.QueueKey)

	pool := worker.New(opQueue, engine, logger, worker.Options{
		Size:       cfg.WorkerCount,
		DeadLetter: cfg.DeadLetterEnabled,
	})

	logger.Info("worker pool starting",
		"workers", cfg.WorkerCount,
		"queue", opQueue.Key(),
	)

	pool.Run(ctx)

	logger.Info("worker pool exited cleanly")
}
