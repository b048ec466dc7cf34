package model

import "time"

// Phase is the coarse lifecycle stage of a speed-test job.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// Active reports whether the phase has a live poll loop behind it.
func (p Phase) Active() bool {
	return p == PhaseStarting || p == PhaseRunning
}

// Terminal reports whether the phase ends a job.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// Stage identifies which measurement is executing while a job is running.
type Stage string

const (
	StageNone     Stage = ""
	StagePing     Stage = "ping"
	StageDownload Stage = "download"
	StageUpload   Stage = "upload"
)

// Percent maps a stage to a coarse overall completion figure for progress bars.
func (s Stage) Percent() float64 {
	switch s {
	case StagePing:
		return 0.1
	case StageDownload:
		return 0.4
	case StageUpload:
		return 0.75
	default:
		return 0
	}
}

// ErrorKind classifies why a job ended in PhaseError.
type ErrorKind string

const (
	ErrorNone      ErrorKind = ""
	ErrorBusy      ErrorKind = "server_busy"
	ErrorTransport ErrorKind = "transport"
	ErrorJob       ErrorKind = "job"
)

// Measurements holds per-field speed-test values. Nil means "not reported yet".
type Measurements struct {
	PingMs       *float64 `json:"ping,omitempty"`
	DownloadMbps *float64 `json:"download,omitempty"`
	UploadMbps   *float64 `json:"upload,omitempty"`
	ServerName   *string  `json:"server_name,omitempty"`
}

// Clone returns a deep copy so callers never share pointers with the owner.
func (m Measurements) Clone() Measurements {
	return Measurements{
		PingMs:       cloneFloat(m.PingMs),
		DownloadMbps: cloneFloat(m.DownloadMbps),
		UploadMbps:   cloneFloat(m.UploadMbps),
		ServerName:   cloneString(m.ServerName),
	}
}

// Result is the immutable outcome of a completed job.
type Result struct {
	PingMs       float64 `json:"ping"`
	DownloadMbps float64 `json:"download"`
	UploadMbps   float64 `json:"upload"`
	ServerName   string  `json:"server_name"`
}

// JobState is a snapshot of the single job tracked by a speed-test controller.
type JobState struct {
	JobID        string       `json:"job_id,omitempty"`
	Phase        Phase        `json:"phase"`
	Stage        Stage        `json:"stage,omitempty"`
	Partial      Measurements `json:"partial"`
	Final        *Result      `json:"final,omitempty"`
	ErrKind      ErrorKind    `json:"error_kind,omitempty"`
	ErrorMessage string       `json:"error,omitempty"`
	Polling      bool         `json:"polling"`

	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Clone returns a deep copy of the state.
func (s JobState) Clone() JobState {
	out := s
	out.Partial = s.Partial.Clone()
	if s.Final != nil {
		f := *s.Final
		out.Final = &f
	}
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
