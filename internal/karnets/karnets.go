// Package karnets is the ephemeral session bridge between the login
// redirect and a later signing call. A karnet is an opaque, client-supplied
// token that maps to an encrypted secret for a fixed time-to-live; reads
// never consume an entry, so a secret can sign repeatedly within its window.
package karnets

import (
	"context"
	"errors"
)

// ErrMiss is returned when a karnet was never set or its TTL has elapsed.
// The two cases are deliberately indistinguishable to the caller.
var ErrMiss = errors.New("karnet not found or expired")

// Cache stores encrypted secrets keyed by karnet. Implementations must
// tolerate concurrent access from many request goroutines.
type Cache interface {
	// Set (re)inserts the secret under karnet with a fresh TTL window.
	Set(ctx context.Context, karnet string, secretEncrypted []byte) error
	// Get returns the secret for karnet, or ErrMiss.
	Get(ctx context.Context, karnet string) ([]byte, error)
	// Delete evicts karnet immediately. Not used on the normal sign path.
	Delete(ctx context.Context, karnet string) error
	// Metrics returns running hit/miss totals.
	Metrics() Metrics
}

// Metrics is a snapshot of cache observability counters. Exposed via
// /status.json; not used for any control decision.
type Metrics struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}
