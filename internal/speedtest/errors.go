package speedtest

import (
	"errors"
	"fmt"
	"strings"

	"speedwatch/internal/model"
)

var (
	// ErrAlreadyRunning is returned synchronously by Start while a job is
	// starting or running. The running job is not affected.
	ErrAlreadyRunning = errors.New("speed test already running")

	// ErrServerBusy means the backend refused to start because it is already
	// running a test, typically one started by another client.
	ErrServerBusy = errors.New("server is busy with another speed test")

	// ErrTransport covers any network or decoding failure during start or poll.
	ErrTransport = errors.New("lost contact with speed test server")

	// ErrJobFailed means the backend reported the test itself as failed.
	ErrJobFailed = errors.New("speed test failed")

	// ErrStopped is returned by Start when Stop was called before the backend
	// acknowledged the start request.
	ErrStopped = errors.New("speed test stopped")

	// ErrConflict is returned (possibly wrapped) by Backend.StartJob when the
	// server already has a job in progress.
	ErrConflict = errors.New("a speed test is already running on the server")
)

// StateErr converts a terminal snapshot into an error suitable for exit-code
// mapping. It returns nil for every phase except PhaseError.
func StateErr(s model.JobState) error {
	if s.Phase != model.PhaseError {
		return nil
	}
	var base error
	switch s.ErrKind {
	case model.ErrorBusy:
		base = ErrServerBusy
	case model.ErrorTransport:
		base = ErrTransport
	default:
		base = ErrJobFailed
	}
	msg := s.ErrorMessage
	if msg == "" || msg == base.Error() {
		return base
	}
	// Messages built by the controller already carry the sentinel text.
	if rest, ok := strings.CutPrefix(msg, base.Error()); ok {
		return fmt.Errorf("%w%s", base, rest)
	}
	return fmt.Errorf("%w: %s", base, msg)
}
