package speedtest

import (
	"context"
	"strings"

	"speedwatch/internal/model"
)

// Status is the job status reported by the backend.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// StatusReport is one decoded answer to a status poll.
type StatusReport struct {
	Status   Status
	Progress string // ping | download | upload | done; only meaningful while running
	Data     model.Measurements
	Error    string
}

// Backend is the pair of remote operations the controller drives.
type Backend interface {
	// StartJob asks the server to begin a test. Implementations return an
	// error wrapping ErrConflict when a job is already running server-side.
	StartJob(ctx context.Context) error
	// PollStatus fetches the current job status.
	PollStatus(ctx context.Context) (StatusReport, error)
}

// ParseStage maps the backend's progress string to a Stage. "done" is sent
// after the upload measurement finished and is kept as the upload stage.
func ParseStage(s string) (model.Stage, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ping":
		return model.StagePing, true
	case "download":
		return model.StageDownload, true
	case "upload", "done":
		return model.StageUpload, true
	default:
		return model.StageNone, false
	}
}
