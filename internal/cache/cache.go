// Package cache provides the short-TTL read-through cache for the two hot
// read paths: the project listing and the current daily log.
//
// Entries pair a serialized JSON snapshot with an expiry instant. Handlers
// invalidate explicitly after every store write; the TTL bounds staleness for
// any invalidation that was missed. Cache failures never fail a request:
// reads degrade to a miss and fall through to the store, writes are skipped,
// and invalidation failures are logged and swallowed.
package cache

import (
	"context"
	"time"

	"github.com/brandon-relentnet/vector-tasks/internal/calendar"
)

// Key namespace. The projects listing is a singleton key; daily logs are
// keyed per operational date and are disjoint across dates.
const (
	ProjectsKey    = "projects"
	DailyLogPrefix = "log:"
)

// Entry TTLs. Listings tolerate five minutes of staleness; the daily log is
// actively edited within a session and gets a tighter bound.
const (
	ProjectsTTL = 5 * time.Minute
	DailyLogTTL = time.Minute
)

// DailyLogKey returns the cache key for the daily log of a given date.
func DailyLogKey(date time.Time) string {
	return DailyLogPrefix + calendar.FormatDate(date)
}

// Cache is the key-value contract both backends implement. Get reports a
// miss (ok == false) for absent and expired entries alike; Set overwrites
// unconditionally; Invalidate is an idempotent point delete; InvalidateAll
// flushes both key families and is for administrative use only.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	InvalidateAll(ctx context.Context) error
	Close() error
}
