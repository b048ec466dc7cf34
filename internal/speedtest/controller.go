// Package speedtest drives a single remote speed-test job: it starts the job,
// polls its status, merges partial progress and reports every transition.
package speedtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"speedwatch/internal/model"
	"speedwatch/internal/progress"
)

const (
	DefaultInterval     = 2 * time.Second
	DefaultStartTimeout = 10 * time.Second
	MinInterval         = 100 * time.Millisecond
)

// Stats counts remote calls and poll-loop decisions for the controller's lifetime.
type Stats struct {
	StartRequests  int
	PollRequests   int
	SkippedTicks   int
	StaleResponses int
}

// Controller owns the lifecycle of one speed-test job at a time.
//
// All state lives behind mu. Remote calls run outside the lock and every
// response is checked against the generation it was issued under, so a
// response that arrives after Stop or a terminal transition is dropped.
type Controller struct {
	backend      Backend
	reporter     progress.Reporter
	logger       *slog.Logger
	interval     time.Duration
	pollTimeout  time.Duration
	startTimeout time.Duration
	newTicker    TickerFunc
	newID        func() string
	now          func() time.Time

	mu       sync.Mutex
	state    model.JobState
	gen      uint64
	cancel   context.CancelFunc // poll handle; non-nil iff phase is starting or running
	ticker   Ticker
	inFlight bool
	done     chan struct{} // latest job; closed once its released event is delivered
	doneSent bool          // done is attached to a queued event
	stats    Stats
	pending  []queued

	emitMu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithPollTimeout bounds each status request. Defaults to three intervals.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.pollTimeout = d
	}
}

// WithStartTimeout bounds the start request.
func WithStartTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.startTimeout = d
	}
}

// WithReporter attaches the observer that receives transition events.
func WithReporter(rp progress.Reporter) Option {
	return func(c *Controller) {
		c.reporter = rp
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithTicker replaces the poll timer (useful for testing).
func WithTicker(f TickerFunc) Option {
	return func(c *Controller) {
		c.newTicker = f
	}
}

// WithIDGenerator replaces the job ID source.
func WithIDGenerator(f func() string) Option {
	return func(c *Controller) {
		c.newID = f
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController builds an idle controller for the given backend.
func NewController(b Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		state:   model.JobState{Phase: model.PhaseIdle},
	}
	for _, o := range opts {
		o(c)
	}
	if c.interval <= 0 {
		c.interval = DefaultInterval
	}
	if c.pollTimeout <= 0 {
		c.pollTimeout = 3 * c.interval
	}
	if c.startTimeout <= 0 {
		c.startTimeout = DefaultStartTimeout
	}
	if c.reporter == nil {
		c.reporter = progress.Discard
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.newTicker == nil {
		c.newTicker = newRealTicker
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Interval returns the configured poll interval.
func (c *Controller) Interval() time.Duration {
	return c.interval
}

// State returns a snapshot of the current job.
func (c *Controller) State() model.JobState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Stats returns a copy of the call counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Start begins a new job and blocks until the backend accepted or refused it.
// On acceptance polling continues in the background and Start returns nil.
// While a job is starting or running it returns ErrAlreadyRunning without any
// remote call. A refusal is also observable as PhaseError.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Phase.Active() {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.gen++
	gen := c.gen
	jobCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.inFlight = false
	c.done = make(chan struct{})
	c.doneSent = false
	c.state = model.JobState{
		JobID:     c.newID(),
		Phase:     model.PhaseStarting,
		Polling:   true,
		StartedAt: c.now(),
	}
	c.stats.StartRequests++
	jobID := c.state.JobID
	c.enqueueLocked(false)
	c.mu.Unlock()
	c.flush()

	c.logger.Debug("starting speed test", "job", jobID)
	sctx, scancel := context.WithTimeout(jobCtx, c.startTimeout)
	err := c.backend.StartJob(sctx)
	scancel()

	c.mu.Lock()
	if gen != c.gen {
		c.stats.StaleResponses++
		c.mu.Unlock()
		return ErrStopped
	}
	if cerr := jobCtx.Err(); cerr != nil {
		c.abandonLocked()
		c.mu.Unlock()
		c.flush()
		return cerr
	}
	if err != nil {
		kind, base := model.ErrorTransport, ErrTransport
		if errors.Is(err, ErrConflict) {
			kind, base = model.ErrorBusy, ErrServerBusy
		}
		wrapped := fmt.Errorf("%w: %v", base, err)
		c.failLocked(kind, wrapped.Error())
		c.mu.Unlock()
		c.flush()
		c.logger.Warn("speed test start refused", "job", jobID, "error", err)
		return wrapped
	}

	c.state.Phase = model.PhaseRunning
	c.ticker = c.newTicker(c.interval)
	c.enqueueLocked(false)
	go c.pollLoop(jobCtx, gen, c.ticker)
	c.mu.Unlock()
	c.flush()
	c.logger.Debug("speed test running", "job", jobID, "interval", c.interval)
	return nil
}

// Stop cancels local observation of the current job and returns to idle.
// The backend is not notified. Stop is idempotent and safe from any phase.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.state.Phase.Active() {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.state.Phase = model.PhaseIdle
	c.state.Stage = model.StageNone
	c.state.FinishedAt = c.now()
	c.enqueueLocked(true)
	jobID := c.state.JobID
	c.mu.Unlock()
	c.flush()
	c.logger.Debug("speed test stopped", "job", jobID)
}

// Wait blocks until the current job leaves the starting/running phases and
// its final event has been delivered to the reporter, or ctx ends. It returns
// the snapshot at that point. Reporters must not call Wait.
func (c *Controller) Wait(ctx context.Context) (model.JobState, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return c.State(), nil
	}
	select {
	case <-done:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

func (c *Controller) pollLoop(ctx context.Context, gen uint64, t Ticker) {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			if gen == c.gen {
				c.abandonLocked()
			}
			c.mu.Unlock()
			c.flush()
			return
		case <-t.C():
			c.tick(ctx, gen)
		}
	}
}

func (c *Controller) tick(ctx context.Context, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if c.inFlight {
		c.stats.SkippedTicks++
		return
	}
	c.inFlight = true
	c.stats.PollRequests++
	go c.poll(ctx, gen)
}

func (c *Controller) poll(ctx context.Context, gen uint64) {
	pctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	rep, err := c.backend.PollStatus(pctx)
	cancel()

	c.mu.Lock()
	if gen != c.gen {
		c.stats.StaleResponses++
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	if ctx.Err() != nil {
		// The poll loop observes the cancellation and tears down.
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.failLocked(model.ErrorTransport, fmt.Errorf("%w: %v", ErrTransport, err).Error())
		c.logger.Warn("speed test status poll failed", "job", c.state.JobID, "error", err)
	} else {
		c.applyLocked(rep)
	}
	c.mu.Unlock()
	c.flush()
}

// applyLocked runs the status-merge algorithm for one report.
func (c *Controller) applyLocked(r StatusReport) {
	switch r.Status {
	case StatusIdle:
		// The backend finished or reset before we saw a terminal status.
		c.teardownLocked()
		c.state.Phase = model.PhaseIdle
		c.state.Stage = model.StageNone
		c.state.FinishedAt = c.now()
		c.enqueueLocked(true)
	case StatusRunning:
		changed := false
		if st, ok := ParseStage(r.Progress); ok && st != c.state.Stage {
			c.state.Stage = st
			changed = true
		}
		if mergePartial(&c.state.Partial, r.Data) {
			changed = true
		}
		if changed {
			c.enqueueLocked(false)
		}
	case StatusComplete:
		final := finalResult(r.Data, c.state.Partial)
		mergePartial(&c.state.Partial, r.Data)
		c.teardownLocked()
		c.state.Phase = model.PhaseComplete
		c.state.Stage = model.StageNone
		c.state.Final = &final
		c.state.FinishedAt = c.now()
		c.enqueueLocked(true)
		c.logger.Info("speed test complete", "job", c.state.JobID,
			"ping_ms", final.PingMs, "download_mbps", final.DownloadMbps,
			"upload_mbps", final.UploadMbps, "server", final.ServerName)
	case StatusError:
		msg := r.Error
		if msg == "" {
			msg = ErrJobFailed.Error()
		}
		c.failLocked(model.ErrorJob, msg)
		c.logger.Warn("speed test reported failure", "job", c.state.JobID, "error", msg)
	default:
		c.failLocked(model.ErrorTransport, fmt.Sprintf("%v: unknown status %q", ErrTransport, r.Status))
	}
}

func (c *Controller) failLocked(kind model.ErrorKind, msg string) {
	c.teardownLocked()
	c.state.Phase = model.PhaseError
	c.state.Stage = model.StageNone
	c.state.ErrKind = kind
	c.state.ErrorMessage = msg
	c.state.FinishedAt = c.now()
	c.enqueueLocked(true)
}

// abandonLocked handles cancellation of the context Start was called with.
func (c *Controller) abandonLocked() {
	if !c.state.Phase.Active() {
		return
	}
	c.teardownLocked()
	c.state.Phase = model.PhaseIdle
	c.state.Stage = model.StageNone
	c.state.FinishedAt = c.now()
	c.enqueueLocked(true)
}

// teardownLocked cancels the poll handle. After it returns no tick of the
// current job will issue a request and no in-flight response will be applied.
func (c *Controller) teardownLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.gen++
	c.inFlight = false
	c.state.Polling = false
}

type queued struct {
	ev   progress.Event
	done chan struct{}
}

func (c *Controller) enqueueLocked(released bool) {
	q := queued{ev: progress.Event{State: c.state.Clone(), Released: released}}
	if released && c.done != nil && !c.doneSent {
		q.done = c.done
		c.doneSent = true
	}
	c.pending = append(c.pending, q)
}

// flush delivers queued events outside mu. Only one goroutine delivers at a
// time so observers see transitions in order; a reporter that calls back into
// the controller has its events delivered by the outer flush.
func (c *Controller) flush() {
	for {
		if !c.emitMu.TryLock() {
			return
		}
		for {
			c.mu.Lock()
			evs := c.pending
			c.pending = nil
			c.mu.Unlock()
			if len(evs) == 0 {
				break
			}
			for _, q := range evs {
				c.reporter.Report(q.ev)
				if q.done != nil {
					close(q.done)
				}
			}
		}
		c.emitMu.Unlock()

		c.mu.Lock()
		more := len(c.pending) > 0
		c.mu.Unlock()
		if !more {
			return
		}
	}
}
