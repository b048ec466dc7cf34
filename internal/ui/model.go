package ui

import (
	"context"
	"errors"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"speedwatch/internal/model"
	"speedwatch/internal/speedtest"
)

// Controller is the part of speedtest.Controller the TUI drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	State() model.JobState
}

// Options configures the TUI.
type Options struct {
	Server    string
	Theme     string
	AutoStart bool
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl    Controller
	eventCh chan tea.Msg
	opts    Options

	state  model.JobState
	notice string // transient message, e.g. a refused start

	spinner spinner.Model
	bar     bubblesprogress.Model

	width  int
	styles Styles
}

func NewModel(ctx context.Context, ctrl Controller, rep *Reporter, opts Options) Model {
	c, cancel := context.WithCancel(ctx)
	sty := stylesFor(opts.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sty.Spinner

	return Model{
		ctx:     c,
		cancel:  cancel,
		ctrl:    ctrl,
		eventCh: rep.ch,
		opts:    opts,
		state:   ctrl.State(),
		spinner: sp,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
		styles: sty,
	}
}

// State returns the last job snapshot the model rendered.
func (m Model) State() model.JobState {
	return m.state
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.listenEventsCmd()}
	if m.opts.AutoStart {
		cmds = append(cmds, m.startCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "s", "enter":
			if m.state.Phase.Active() {
				m.notice = "A speed test is already running."
				return m, nil
			}
			m.notice = ""
			return m, m.startCmd()
		case "x":
			if !m.state.Phase.Active() {
				return m, nil
			}
			return m, m.stopCmd()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 20; w > 10 && w < 60 {
			m.bar.Width = w
		}
		return m, nil

	case stateMsg:
		m.state = msg.E.State
		return m, m.listenEventsCmd()

	case startResultMsg:
		if errors.Is(msg.Err, speedtest.ErrAlreadyRunning) {
			m.notice = "A speed test is already running."
		}
		// Other failures arrive as an error-phase event.
		return m, nil

	case stoppedMsg:
		m.notice = "Stopped watching the test."
		return m, nil

	case allDoneMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewHeader() + "\n\n" + m.viewBody() + "\n" + m.viewFooter()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		return startResultMsg{Err: m.ctrl.Start(m.ctx)}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Stop()
		return stoppedMsg{}
	}
}
