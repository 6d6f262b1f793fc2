package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/web"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	e, err := newEnv(c.globals)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(ctx, e)
}

// run serves the dashboard until ctx is cancelled.
func (c *ServeCommand) run(ctx context.Context, e *env) error {
	addr := c.Addr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	if err := web.ValidateListenAddr(addr); err != nil {
		return err
	}
	tab, err := e.tab("")
	if err != nil {
		return err
	}

	ctrl := e.controller()
	defer ctrl.Close()
	rec := e.attachMetrics(ctrl)
	closeArchive, err := e.attachArchive(ctrl)
	if err != nil {
		e.logger.Warn("archive unavailable", "err", err)
	} else {
		defer closeArchive()
	}

	srv := web.New(ctrl, rec, web.Options{
		View:       e.viewOptions(),
		DefaultTab: tab,
		AutoReload: e.cfg.Server.PageAutoReload.Std(),
		Logger:     e.logger,
	})

	sched := dashboard.NewScheduler(ctrl, e.cfg.Refresh.Interval.Std(), e.cfg.Refresh.ClockTick.Std(), e.logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			e.logger.Warn("scheduler stop", "err", err)
		}
	}()

	if !wantJSON(c.globals) {
		fmt.Printf("Dashboard: %s\n", web.ListenURL(addr))
		fmt.Printf("Metrics:   %s/metrics\n", web.ListenURL(addr))
	}
	return srv.Serve(ctx, addr)
}
