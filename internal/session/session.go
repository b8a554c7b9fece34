// Package session keeps per-client state: at most one committed result plus
// a generation counter so that late results from superseded jobs are dropped.
package session

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned when a newer job started after this one.
var ErrSuperseded = errors.New("superseded by a newer upload")

// Session holds the latest committed value of type T.
//
// Every job calls Begin, which bumps the generation and cancels the context
// of the job it replaces. Only the newest job may Commit. A failed job calls
// Abandon and leaves the previously committed value in place.
type Session[T any] struct {
	mu        sync.Mutex
	gen       uint64
	committed uint64
	has       bool
	value     T
	cancel    context.CancelFunc
}

// New creates an empty session
func New[T any]() *Session[T] {
	return &Session[T]{}
}

// Begin starts a job and returns its generation and a context that is
// cancelled as soon as a newer job begins.
func (s *Session[T]) Begin(ctx context.Context) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return s.gen, jobCtx
}

// Commit installs v as the current value if gen is still the newest job.
func (s *Session[T]) Commit(gen uint64, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return ErrSuperseded
	}
	s.value = v
	s.has = true
	s.committed = gen
	s.release()
	return nil
}

// Abandon ends job gen without touching the committed value.
func (s *Session[T]) Abandon(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.gen {
		s.release()
	}
}

// Snapshot returns the committed value and its generation. ok is false
// until the first Commit.
func (s *Session[T]) Snapshot() (v T, gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.committed, s.has
}

// Current reports whether gen is still the committed generation. Work
// derived from a Snapshot should be discarded once this turns false.
func (s *Session[T]) Current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.has && s.committed == gen
}

// Generation returns the generation of the newest job, committed or not.
func (s *Session[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Close cancels any in-flight job.
func (s *Session[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
}

func (s *Session[T]) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
