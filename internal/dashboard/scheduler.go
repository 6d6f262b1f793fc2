package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives periodic refreshes and the clock tick for a Controller.
type Scheduler struct {
	ctrl         *Controller
	cron         *cron.Cron
	log          cronLogger
	refreshEvery time.Duration
	tickEvery    time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler. cron's constant delay schedule
// has a one second resolution, so shorter intervals run every second.
func NewScheduler(ctrl *Controller, refreshEvery, tickEvery time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		ctrl:         ctrl,
		log:          cronLogger{logger: logger},
		refreshEvery: refreshEvery,
		tickEvery:    tickEvery,
	}
}

// Start refreshes immediately, then every refresh interval. A refresh that
// is still running when the next one is due causes that run to be skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cron = cron.New(cron.WithLogger(s.log), cron.WithChain(cron.Recover(s.log)))
	refresh := cron.NewChain(cron.SkipIfStillRunning(s.log)).Then(cron.FuncJob(func() {
		s.ctrl.Refresh(ctx)
	}))
	tick := cron.FuncJob(func() {
		s.ctrl.Tick(time.Now())
	})

	s.cron.Schedule(cron.Every(s.refreshEvery), refresh)
	s.cron.Schedule(cron.Every(s.tickEvery), tick)
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		refresh.Run()
	}()

	s.started = true
	s.cancel = cancel
	s.log.logger.Info("scheduler started",
		"refresh_interval", s.refreshEvery,
		"clock_interval", s.tickEvery,
	)
	return nil
}

// Stop removes both timers and waits for a running refresh to finish, or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.log.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		s.log.logger.Warn("scheduler stop timeout")
		return ctx.Err()
	}
}

// cronLogger routes cron's own logging through slog. Routine messages are
// demoted to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
