package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"speedwatch/internal/model"
)

// Run launches the TUI and blocks until the user quits. A job still running
// at that point is stopped. It returns the controller's final state.
func Run(ctx context.Context, ctrl Controller, rep *Reporter, opts Options) (model.JobState, error) {
	m := NewModel(ctx, ctrl, rep, opts)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := prog.Run()
	ctrl.Stop()
	return ctrl.State(), err
}
