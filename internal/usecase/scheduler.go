package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MCNews/internal/ports"
)

// Task names registered with the driver.
const (
	TaskVersionCheck = "version-check"
	TaskServiceCheck = "service-check"
)

// Schedule holds the periods of the recurring cycles.
type Schedule struct {
	VersionEvery time.Duration
	ServiceEvery time.Duration
	StartupDelay time.Duration
}

// Scheduler wires the recurring driver with the monitor cycles.
type Scheduler struct {
	driver   ports.Scheduler
	monitor  *Monitor
	schedule Schedule
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	warmup sync.WaitGroup
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, monitor *Monitor, schedule Schedule, log zerolog.Logger) *Scheduler {
	return &Scheduler{driver: driver, monitor: monitor, schedule: schedule, log: log}
}

// Start registers both cycles, starts the driver and, after the startup
// delay, seeds the health cache and runs one version check.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.monitor == nil {
		return nil
	}

	if err := s.driver.Every(TaskVersionCheck, s.schedule.VersionEvery, s.monitor.CheckVersions); err != nil {
		return fmt.Errorf("register %s: %w", TaskVersionCheck, err)
	}
	if err := s.driver.Every(TaskServiceCheck, s.schedule.ServiceEvery, s.monitor.CheckServices); err != nil {
		return fmt.Errorf("register %s: %w", TaskServiceCheck, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := s.driver.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.warmup.Add(1)
	go func() {
		defer s.warmup.Done()
		s.monitor.sleep(runCtx, s.schedule.StartupDelay)
		if runCtx.Err() != nil {
			return
		}
		s.monitor.SeedHealth(runCtx)
		s.monitor.CheckVersions(runCtx)
	}()

	s.log.Info().
		Dur("version_every", s.schedule.VersionEvery).
		Dur("service_every", s.schedule.ServiceEvery).
		Dur("startup_delay", s.schedule.StartupDelay).
		Msg("scheduler started")
	return nil
}

// Stop cancels the startup work and gracefully tears down the driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.warmup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return s.driver.Stop(ctx)
}
