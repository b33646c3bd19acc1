// Package session carries the logger, clock and progress reporting of one
// method run. It is passed explicitly so nothing depends on process globals.
package session

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// ProgressFunc is called to report batch progress.
type ProgressFunc func(current int, total int, description string)

// Session tracks one run. The zero value is not usable; use New.
type Session struct {
	Logger *slog.Logger

	now      func() time.Time
	progress ProgressFunc

	mu      sync.Mutex
	started time.Time
	stopped time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) {
		s.progress = fn
	}
}

// New creates a session logging to logger. A nil logger discards output.
func New(logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Session{
		Logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Child returns a session sharing the clock and progress callback, with
// attrs added to every log record.
func (s *Session) Child(args ...any) *Session {
	return &Session{
		Logger:   s.Logger.With(args...),
		now:      s.now,
		progress: s.progress,
	}
}

// Start records the start time unless the session is already running.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() || !s.stopped.IsZero() {
		s.started = s.now()
		s.stopped = time.Time{}
	}
}

// Stop records the end time and returns the elapsed duration.
func (s *Session) Stop() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	if s.stopped.IsZero() {
		s.stopped = s.now()
	}
	return s.stopped.Sub(s.started)
}

// Elapsed returns the time since Start, or the final duration once stopped.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	if !s.stopped.IsZero() {
		return s.stopped.Sub(s.started)
	}
	return s.now().Sub(s.started)
}

// Progress forwards to the progress callback, if any.
func (s *Session) Progress(current, total int, description string) {
	if s.progress != nil {
		s.progress(current, total, description)
	}
}
