package progress

import "speedwatch/internal/model"

// Event conveys one speed-test state transition.
type Event struct {
	State model.JobState

	// Released is set on the event that tears down the poll loop (terminal
	// phase or explicit stop). Presentation layers free animation state on it.
	Released bool
}

// Reporter is implemented by UI or any observer interested in job transitions.
// Report is called outside the controller's lock, in transition order.
type Reporter interface {
	Report(e Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(e Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Discard drops every event.
var Discard Reporter = ReporterFunc(func(Event) {})
