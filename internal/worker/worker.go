// FILE: internal/worker/worker.go
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mattslight/blunderfixer-api/internal/core"
	"github.com/mattslight/blunderfixer-api/internal/miner"
)

// Store is the persistence surface the runner needs.
type Store interface {
	FetchUnprocessed(limit int) ([]core.WorkItem, error)
	GetGame(id string) (*core.GameRecord, error)
	InsertDrills(drills []core.DrillRecord) (int, error)
	MarkProcessed(workID string) error
}

// EvaluatorFactory builds one evaluator per worker. Each worker owns its
// engine subprocess for its whole lifetime.
type EvaluatorFactory func() (miner.Evaluator, func() error, error)

type Config struct {
	BatchSize    int
	Workers      int
	PollInterval time.Duration
	Policy       miner.Policy
}

func (c Config) withDefaults() Config {
	if c.BatchSize < 1 {
		c.BatchSize = 10
	}
	if c.Workers < 1 {
		c.Workers = 2
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	return c
}

// Runner drains the drill queue: it polls for unprocessed work items, mines
// each referenced game for its hero and persists the results. A work item is
// marked processed only after its drills are durably written; a crash before
// that leaves the item queued for a harmless retry.
type Runner struct {
	store   Store
	factory EvaluatorFactory
	cfg     Config
	log     *zap.Logger
}

func NewRunner(store Store, factory EvaluatorFactory, cfg Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{store: store, factory: factory, cfg: cfg.withDefaults(), log: log}
}

// Run polls until the context is cancelled, backing off for the poll
// interval whenever a batch comes back empty.
func (r *Runner) Run(ctx context.Context) error {
	for {
		processed, err := r.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Error("batch failed", zap.Error(err))
		}

		if processed == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.cfg.PollInterval):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// RunOnce fetches one batch and processes it across the worker pool,
// returning how many items were handled.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	items, err := r.store.FetchUnprocessed(r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch work: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	workers := r.cfg.Workers
	if workers > len(items) {
		workers = len(items)
	}

	// Build every evaluator before feeding any work: a dead engine binary
	// must fail the batch, not leave the feed blocked on a silent pool.
	miners := make([]*miner.Miner, 0, workers)
	closers := make([]func() error, 0, workers)
	var factoryErr error
	for i := 0; i < workers; i++ {
		eval, closeEval, err := r.factory()
		if err != nil {
			r.log.Error("worker failed to initialize evaluator",
				zap.Int("worker", i),
				zap.Error(err))
			factoryErr = err
			continue
		}
		miners = append(miners, miner.New(eval, r.cfg.Policy, r.log))
		closers = append(closers, closeEval)
	}
	if len(miners) == 0 {
		return 0, fmt.Errorf("no worker could start an evaluator: %w", factoryErr)
	}
	defer func() {
		for _, closeEval := range closers {
			closeEval()
		}
	}()

	tasks := make(chan core.WorkItem)
	var wg sync.WaitGroup

	for _, m := range miners {
		wg.Add(1)
		go func(m *miner.Miner) {
			defer wg.Done()
			for item := range tasks {
				if err := r.processItem(m, item); err != nil {
					r.log.Error("work item failed",
						zap.String("work_id", item.ID),
						zap.String("game_id", item.GameID),
						zap.Error(err))
				}
			}
		}(m)
	}

	dispatched := 0
feed:
	for _, item := range items {
		select {
		case tasks <- item:
			dispatched++
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	return dispatched, nil
}

func (r *Runner) processItem(m *miner.Miner, item core.WorkItem) error {
	game, err := r.store.GetGame(item.GameID)
	if err != nil {
		return fmt.Errorf("failed to load game: %w", err)
	}
	if game == nil {
		// Orphaned queue entry; retire it so it stops polluting batches.
		r.log.Warn("work item references missing game",
			zap.String("work_id", item.ID),
			zap.String("game_id", item.GameID))
		return r.store.MarkProcessed(item.ID)
	}

	drills, err := m.MineAndClassify(*game, item.HeroUsername)
	if err != nil {
		return fmt.Errorf("mining failed: %w", err)
	}

	inserted, err := r.store.InsertDrills(drills)
	if err != nil {
		return fmt.Errorf("failed to persist drills: %w", err)
	}

	if err := r.store.MarkProcessed(item.ID); err != nil {
		return fmt.Errorf("failed to mark processed: %w", err)
	}

	r.log.Info("game mined",
		zap.String("game_id", item.GameID),
		zap.String("hero", item.HeroUsername),
		zap.Int("candidates", len(drills)),
		zap.Int("inserted", inserted))
	return nil
}
