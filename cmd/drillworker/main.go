// Package main implements the drill mining worker: it drains the queue of
// imported games, evaluates the hero's moves with a UCI engine and persists
// drill positions for later training.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mattslight/blunderfixer-api/internal/engine"
	"github.com/mattslight/blunderfixer-api/internal/miner"
	"github.com/mattslight/blunderfixer-api/internal/storage"
	"github.com/mattslight/blunderfixer-api/internal/worker"
)

func main() {
	var (
		storagePath = flag.String("storage-path", "blunderfixer.db", "Path to SQLite database file")
		enginePath  = flag.String("engine", engine.DefaultPath, "Path to UCI engine binary")
		workers     = flag.Int("workers", 2, "Number of mining workers (one engine each)")
		batch       = flag.Int("batch", 10, "Work items fetched per poll")
		poll        = flag.Duration("poll", 5*time.Second, "Poll interval when the queue is empty")
		once        = flag.Bool("once", false, "Process one batch and exit")
		dev         = flag.Bool("dev", false, "Development mode (console logging)")

		swing     = flag.Float64("swing", 0, "Centipawn swing threshold (0 = default)")
		tolerance = flag.Float64("tolerance", 0, "Winning move tolerance in centipawns (0 = default)")
		mineDepth = flag.Int("mine-depth", 0, "Search depth for the mining pass (0 = default)")
		deepDepth = flag.Int("assess-depth", 0, "Search depth for the assessment pass (0 = default)")
	)
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	store, err := storage.NewStore(*storagePath, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	if err := store.InitDB(); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}
	defer store.Close()

	factory := func() (miner.Evaluator, func() error, error) {
		eng, err := engine.New(*enginePath)
		if err != nil {
			return nil, nil, err
		}
		return eng, eng.Close, nil
	}

	cfg := worker.Config{
		BatchSize:    *batch,
		Workers:      *workers,
		PollInterval: *poll,
		Policy: miner.Policy{
			SwingThreshold:   *swing,
			WinningTolerance: *tolerance,
			MineDepth:        *mineDepth,
			AssessDepth:      *deepDepth,
		},
	}
	runner := worker.NewRunner(store, factory, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutting down")
		cancel()
	}()

	if *once {
		processed, err := runner.RunOnce(ctx)
		if err != nil {
			logger.Fatal("batch failed", zap.Error(err))
		}
		logger.Info("batch complete", zap.Int("processed", processed))
		return
	}

	logger.Info("drill worker starting",
		zap.String("storage", *storagePath),
		zap.String("engine", *enginePath),
		zap.Int("workers", *workers))

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("worker stopped", zap.Error(err))
	}
	logger.Info("worker exited")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
