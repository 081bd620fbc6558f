package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/internal/logging"
	"github.com/robfig/cron/v3"
)

// Pruner removes sessions idle for longer than maxIdle.
type Pruner interface {
	PruneIdle(ctx context.Context, maxIdle time.Duration) (int, error)
}

// Janitor periodically prunes idle in-memory sessions.
type Janitor struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	store   Pruner
	maxIdle time.Duration
	logger  *slog.Logger
}

// NewJanitor creates a janitor; call Start to schedule it.
func NewJanitor(store Pruner, maxIdle time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Janitor{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		ctx:     ctx,
		cancel:  cancel,
		store:   store,
		maxIdle: maxIdle,
		logger:  logger,
	}
}

// Start schedules RunOnce with a cron spec such as "@every 10m".
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, func() { j.RunOnce() }); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("session janitor started", "schedule", spec, "max_idle", j.maxIdle)
	return nil
}

// RunOnce prunes idle sessions and returns how many were removed.
func (j *Janitor) RunOnce() int {
	n, err := j.store.PruneIdle(j.ctx, j.maxIdle)
	if err != nil {
		j.logger.Error("session janitor failed", "error", err)
		return 0
	}
	if n > 0 {
		j.logger.Info("pruned idle sessions", "count", n)
	}
	return n
}

// Stop waits for a running prune to finish and stops the schedule.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.cancel()
}
