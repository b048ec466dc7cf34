package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"speedwatch/internal/progress"
)

// Reporter forwards controller events into the TUI's message channel.
// Create it before the controller and pass it to both.
type Reporter struct {
	ctx context.Context
	ch  chan tea.Msg
}

// NewReporter returns a Reporter that stops delivering once ctx ends.
func NewReporter(ctx context.Context) *Reporter {
	return &Reporter{ctx: ctx, ch: make(chan tea.Msg, 256)}
}

// Report implements progress.Reporter.
func (r *Reporter) Report(e progress.Event) {
	// Released events end a job; never drop them.
	if e.Released {
		select {
		case r.ch <- stateMsg{E: e}:
		case <-r.ctx.Done():
		}
		return
	}
	select {
	case r.ch <- stateMsg{E: e}:
	default:
	}
}
