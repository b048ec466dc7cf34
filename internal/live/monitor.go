// Package live samples the backend's instantaneous throughput on an interval.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"speedwatch/internal/model"
)

// DefaultInterval matches the refresh rate of the monitor dashboard.
const DefaultInterval = 5 * time.Second

// Source is the part of the backend client the monitor needs.
type Source interface {
	LiveSpeed(ctx context.Context) (model.LiveSpeed, error)
}

// Sample is one poll result. Err is set when the request failed; Speed is
// then zero.
type Sample struct {
	Seq   int
	At    time.Time
	Speed model.LiveSpeed
	Err   error
}

// Monitor polls a Source. Requests never overlap: a request that outlasts the
// interval delays the next one instead of stacking.
type Monitor struct {
	src      Source
	interval time.Duration
	timeout  time.Duration
	count    int
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the delay between samples.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithTimeout bounds each request. Defaults to the interval.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		m.timeout = d
	}
}

// WithCount stops the monitor after n samples. Zero means unbounded.
func WithCount(n int) Option {
	return func(m *Monitor) {
		m.count = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// New builds a monitor for src.
func New(src Source, opts ...Option) *Monitor {
	m := &Monitor{src: src}
	for _, o := range opts {
		o(m)
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.timeout <= 0 {
		m.timeout = m.interval
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Run samples immediately and then once per interval, handing each sample to
// fn. Failed requests are passed on as samples and do not stop the loop.
// Run returns nil once the configured count is reached, or ctx's error.
func (m *Monitor) Run(ctx context.Context, fn func(Sample)) error {
	if m.count < 0 {
		return fmt.Errorf("invalid sample count %d", m.count)
	}
	t := time.NewTicker(m.interval)
	defer t.Stop()

	for seq := 1; ; seq++ {
		s := m.sample(ctx, seq)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(s)
		if m.count > 0 && seq >= m.count {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (m *Monitor) sample(ctx context.Context, seq int) Sample {
	rctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	v, err := m.src.LiveSpeed(rctx)
	s := Sample{Seq: seq, At: m.now(), Speed: v, Err: err}
	if err != nil {
		s.Speed = model.LiveSpeed{}
		m.logger.Debug("live sample failed", "seq", seq, "error", err)
	}
	return s
}
