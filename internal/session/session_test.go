package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CommitAndSnapshot(t *testing.T) {
	s := New[string]()

	_, _, ok := s.Snapshot()
	assert.False(t, ok, "new session has nothing committed")

	gen, _ := s.Begin(context.Background())
	require.NoError(t, s.Commit(gen, "first"))

	v, committed, ok := s.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "first", v)
	assert.Equal(t, gen, committed)
	assert.True(t, s.Current(gen))
}

func TestSession_LateResultIsDropped(t *testing.T) {
	s := New[string]()

	oldGen, oldCtx := s.Begin(context.Background())
	newGen, _ := s.Begin(context.Background())

	assert.Greater(t, newGen, oldGen)
	assert.ErrorIs(t, oldCtx.Err(), context.Canceled, "older job is cancelled when a newer one begins")

	require.NoError(t, s.Commit(newGen, "new"))
	assert.ErrorIs(t, s.Commit(oldGen, "old"), ErrSuperseded)

	v, _, _ := s.Snapshot()
	assert.Equal(t, "new", v)
}

func TestSession_FailedJobKeepsPreviousResult(t *testing.T) {
	s := New[string]()

	gen, _ := s.Begin(context.Background())
	require.NoError(t, s.Commit(gen, "good"))

	failed, ctx := s.Begin(context.Background())
	s.Abandon(failed)
	assert.Error(t, ctx.Err())

	v, committed, ok := s.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "good", v)
	assert.Equal(t, gen, committed)
	assert.True(t, s.Current(gen), "an abandoned job does not invalidate the visible result")
}

func TestSession_SnapshotInvalidatedByNewCommit(t *testing.T) {
	s := New[int]()

	gen, _ := s.Begin(context.Background())
	require.NoError(t, s.Commit(gen, 1))
	_, snap, _ := s.Snapshot()

	next, _ := s.Begin(context.Background())
	assert.True(t, s.Current(snap), "still current while the next job is in flight")
	require.NoError(t, s.Commit(next, 2))
	assert.False(t, s.Current(snap))
	assert.Equal(t, next, s.Generation())
}

func TestSession_AbandonOfStaleJobIsNoop(t *testing.T) {
	s := New[int]()

	stale, _ := s.Begin(context.Background())
	fresh, freshCtx := s.Begin(context.Background())

	s.Abandon(stale)
	assert.NoError(t, freshCtx.Err(), "abandoning an old job must not cancel the newest one")

	require.NoError(t, s.Commit(fresh, 7))
	s.Close()
}
