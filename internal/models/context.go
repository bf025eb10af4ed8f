// Package models contains entities of CTF competition and in-memory
// stores that own them.
//
// Every store guards its state with a mutex and returns copies, so
// callers never share mutable state with the store.
package models

import (
	"context"
	"time"
)

type nowKey struct{}

// WithNow replaces time.Now for operations that use context.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

// GetNow returns time from context or time.Now.
func GetNow(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
