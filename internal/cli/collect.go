package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/view"
)

// Execute implements the go-flags Commander interface for CollectCommand.
func (c *CollectCommand) Execute(args []string) error {
	e, err := newEnv(c.globals)
	if err != nil {
		return err
	}
	ctrl := e.controller()
	defer ctrl.Close()

	closeArchive, err := e.attachArchive(ctrl)
	if err != nil {
		e.logger.Warn("archive unavailable", "err", err)
	} else {
		defer closeArchive()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.executeWithController(ctx, e, ctrl)
}

// executeWithController triggers a collect and, unless --no-refresh is set,
// waits for the delayed refresh and prints the dashboard it produced.
func (c *CollectCommand) executeWithController(ctx context.Context, e *env, ctrl *dashboard.Controller) error {
	refreshed := make(chan dashboard.RefreshResult, 1)
	ctrl.OnRefresh(func(res dashboard.RefreshResult) {
		select {
		case refreshed <- res:
		default:
		}
	})

	collectErr := ctrl.TriggerCollect(ctx)
	if !wantJSON(c.globals) {
		if collectErr != nil {
			fmt.Printf("Collect failed: %v\n", collectErr)
		} else {
			fmt.Println("Collection triggered.")
		}
	}

	if c.NoRefresh {
		ctrl.Close()
		if wantJSON(c.globals) {
			if err := printJSON(collectJSON{Triggered: collectErr == nil, Error: errString(collectErr)}); err != nil {
				return err
			}
		}
		return wrapCollect(collectErr)
	}

	delay := e.cfg.Refresh.CollectDelay.Std()
	if !wantJSON(c.globals) {
		fmt.Printf("Refreshing in %s...\n\n", delay)
	}

	var res dashboard.RefreshResult
	select {
	case res = <-refreshed:
	case <-ctx.Done():
		return ctx.Err()
	}

	page := view.BuildPage(res.State.Data(), view.NewViewState(view.TabNews), time.Now(), e.viewOptions())
	if wantJSON(c.globals) {
		if err := printJSON(collectJSON{
			Triggered: collectErr == nil,
			Error:     errString(collectErr),
			Failed:    failedSlots(res),
			Page:      &page,
		}); err != nil {
			return err
		}
	} else {
		printDashboard(page, failedSlots(res))
	}
	return wrapCollect(collectErr)
}

// collectJSON is the JSON output structure for the collect command.
type collectJSON struct {
	Triggered bool       `json:"triggered"`
	Error     string     `json:"error,omitempty"`
	Failed    []string   `json:"failed,omitempty"`
	Page      *view.Page `json:"page,omitempty"`
}

func wrapCollect(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("collect: %w", err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
