// Package tui is the live terminal dashboard.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/render"
	"github.com/runnerr0/quix/internal/view"
)

// StateMsg carries a new controller state into the program.
type StateMsg dashboard.State

// CollectMsg reports the outcome of a collect triggered from the keyboard.
type CollectMsg struct{ Err error }

// Model is the root Bubble Tea model.
type Model struct {
	ctrl  *dashboard.Controller
	rend  *render.Renderer
	opts  view.Options
	vs    view.ViewState
	state dashboard.State

	width, height int
	status        string
}

// New creates a model showing tab first.
func New(ctrl *dashboard.Controller, rend *render.Renderer, opts view.Options, tab view.Tab) Model {
	return Model{
		ctrl:  ctrl,
		rend:  rend,
		opts:  opts,
		vs:    view.NewViewState(tab),
		state: ctrl.State(),
	}
}

// ViewState returns the current transient UI state.
func (m Model) ViewState() view.ViewState { return m.vs }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.rend.SetWidth(msg.Width)
		return m, nil

	case StateMsg:
		m.state = dashboard.State(msg)
		return m, nil

	case CollectMsg:
		if msg.Err != nil {
			m.status = "collect failed, refreshing anyway"
		} else {
			m.status = "collection triggered"
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.vs.NextTab()
	case "n":
		_ = m.vs.SetTab(view.TabNews)
	case "c":
		_ = m.vs.SetTab(view.TabChatter)

	case "e":
		m.vs.ToggleExpanded()
	case "m":
		m.vs.ToggleMenu()
	case "esc":
		if m.vs.MenuOpen {
			m.vs.ToggleMenu()
		}

	case "1", "2", "3", "4":
		sections := view.Sections()
		m.vs.Navigate(sections[msg.String()[0]-'1'])

	case "r":
		m.status = "refreshing"
		return m, m.refresh()
	case "C":
		m.status = "collecting"
		return m, m.collect()
	}
	return m, nil
}

// refresh runs a cycle off the event loop. The new state arrives through the
// controller subscription.
func (m Model) refresh() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Refresh(context.Background())
		return nil
	}
}

func (m Model) collect() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return CollectMsg{Err: ctrl.TriggerCollect(context.Background())}
	}
}

func (m Model) View() string {
	now := m.state.CurrentTime
	if now.IsZero() {
		now = time.Now()
	}
	page := view.BuildPage(m.state.Data(), m.vs, now, m.opts)
	help := "[tab/n/c] feed  [e] expand  [m] menu  [1-4] jump  [r] refresh  [C] collect  [q] quit"
	if m.status != "" {
		help = m.status + "  ·  " + help
	}
	return m.rend.Page(page) + "\n\n" + help
}

// Run drives the dashboard until the user quits or ctx is cancelled, then
// stops the scheduler and the controller's pending timers.
func Run(ctx context.Context, ctrl *dashboard.Controller, sched *dashboard.Scheduler, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)
	ctrl.Subscribe(func(s dashboard.State) { p.Send(StateMsg(s)) })

	if err := sched.Start(ctx); err != nil {
		return err
	}

	_, err := p.Run()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = sched.Stop(stopCtx)
	ctrl.Close()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
