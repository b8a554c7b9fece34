package session

import (
	"context"
	"time"
)

// Store keeps values by session ID
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) error
	NewID() string
	Len() int
	Sweep(maxIdle time.Duration) int
}

var _ Store[int] = (*MemoryStore[int])(nil)
