// Package clientstate persists the small amount of per-user state the SPA
// used to keep in browser storage: the instant a shift was clocked in at,
// plus short-lived cached identity lookups. Everything here is wiped at
// logout.
package clientstate

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("clientstate: not found")

type Store interface {
	// SetClockInStart records when userID clocked in; ttl bounds how long an
	// abandoned record may linger.
	SetClockInStart(ctx context.Context, userID int, start time.Time, ttl time.Duration) error
	// ClockInStart returns the persisted start instant, or ErrNotFound.
	ClockInStart(ctx context.Context, userID int) (time.Time, error)
	ClearClockInStart(ctx context.Context, userID int) error

	// SetCached / GetCached / DeleteCached back the server-strategy
	// identity cache.
	SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetCached(ctx context.Context, key string) ([]byte, error)
	DeleteCached(ctx context.Context, key string) error

	// Clear removes userID's clock-in record (logout). Cached identity
	// entries are keyed by credential, not user id; logout evicts those
	// separately via DeleteCached.
	Clear(ctx context.Context, userID int) error
}
