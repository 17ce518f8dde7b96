package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MCNews/internal/ports"
	"MCNews/pkg/logger"
)

// CronScheduler runs named fixed-interval tasks on robfig/cron. A task still
// running when its next tick fires is skipped, and panics are recovered.
type CronScheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   map[string]cron.EntryID
	started bool
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds an idle scheduler.
func NewCronScheduler(log zerolog.Logger) *CronScheduler {
	cl := logger.NewCron(log, "cron")
	return &CronScheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:   log,
		tasks: map[string]cron.EntryID{},
	}
}

// Every registers task under name to run each interval. Re-registering a
// name replaces the previous entry.
func (c *CronScheduler) Every(name string, interval time.Duration, task func(ctx context.Context)) error {
	if task == nil {
		return fmt.Errorf("task %s is nil", name)
	}
	if interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive, got %s", name, interval)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.tasks[name]; ok {
		c.cron.Remove(id)
	}

	id := c.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		c.mu.Lock()
		ctx := c.ctx
		c.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		started := time.Now()
		task(ctx)
		c.log.Debug().Str("task", name).Dur("took", time.Since(started)).Msg("task finished")
	}))
	c.tasks[name] = id
	c.log.Info().Str("task", name).Dur("interval", interval).Msg("task registered")
	return nil
}

// Start begins firing registered tasks. Task contexts derive from ctx.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.cron.Start()
	return nil
}

// Stop cancels running tasks and waits for them until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
