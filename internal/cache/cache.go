package cache

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON-encoded catalog reads. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get decodes the value under key into dst or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any) error
	// Invalidate drops every catalog entry.
	Invalidate(ctx context.Context) error
}

// Noop never stores anything. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error { return ErrCacheMiss }
func (Noop) Set(context.Context, string, any) error { return nil }
func (Noop) Invalidate(context.Context) error { return nil }
