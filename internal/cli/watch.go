package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/render"
	"github.com/runnerr0/quix/internal/tui"
)

// Execute implements the go-flags Commander interface for WatchCommand.
func (c *WatchCommand) Execute(args []string) error {
	// The dashboard owns the terminal, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	e, err := newEnvLogTo(c.globals, logOut)
	if err != nil {
		return err
	}
	tab, err := e.tab(c.Tab)
	if err != nil {
		return err
	}

	ctrl := e.controller()
	closeArchive, err := e.attachArchive(ctrl)
	if err != nil {
		e.logger.Warn("archive unavailable", "err", err)
	} else {
		defer closeArchive()
	}

	sched := dashboard.NewScheduler(ctrl, e.cfg.Refresh.Interval.Std(), e.cfg.Refresh.ClockTick.Std(), e.logger)
	model := tui.New(ctrl, render.New(os.Stdout), e.viewOptions(), tab)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.logger.Info("watch started", "api", e.client.BaseURL(), "refresh", e.cfg.Refresh.Interval.Std())
	return tui.Run(ctx, ctrl, sched, model)
}
