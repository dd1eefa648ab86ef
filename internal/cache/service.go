package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Service wraps a Cache with the two concrete read-path policies. All
// methods swallow backend errors: a failed read is a miss, a failed write is
// skipped, and a failed invalidation is logged; the TTL caps the resulting
// staleness and the store stays the source of truth.
type Service struct {
	cache Cache
}

// NewService wraps the given backend.
func NewService(c Cache) *Service {
	return &Service{cache: c}
}

// GetProjects unmarshals the cached project listing into dst. Returns false
// on miss, backend failure, or a corrupt snapshot.
func (s *Service) GetProjects(ctx context.Context, dst any) bool {
	return s.get(ctx, ProjectsKey, dst)
}

// SetProjects caches the project listing for ProjectsTTL.
func (s *Service) SetProjects(ctx context.Context, v any) {
	s.set(ctx, ProjectsKey, v, ProjectsTTL)
}

// InvalidateProjects drops the project listing snapshot. Called after every
// project or task mutation; task mutations count because listings embed
// project aggregate info.
func (s *Service) InvalidateProjects(ctx context.Context) {
	s.invalidate(ctx, ProjectsKey)
}

// GetDailyLog unmarshals the cached daily log for date into dst.
func (s *Service) GetDailyLog(ctx context.Context, date time.Time, dst any) bool {
	return s.get(ctx, DailyLogKey(date), dst)
}

// SetDailyLog caches the daily log for date for DailyLogTTL.
func (s *Service) SetDailyLog(ctx context.Context, date time.Time, v any) {
	s.set(ctx, DailyLogKey(date), v, DailyLogTTL)
}

// InvalidateDailyLog drops the snapshot for date only; other dates are
// untouched.
func (s *Service) InvalidateDailyLog(ctx context.Context, date time.Time) {
	s.invalidate(ctx, DailyLogKey(date))
}

// InvalidateAll flushes both key families. Administrative use only.
func (s *Service) InvalidateAll(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Printf("cache: invalidate all failed: %v", err)
	}
}

// Close releases the backend's resources.
func (s *Service) Close() error {
	return s.cache.Close()
}

func (s *Service) get(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("cache: get %s failed: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// Corrupt snapshot: treat as a miss and let the read path repopulate.
		log.Printf("cache: corrupt entry for %s: %v", key, err)
		return false
	}
	return true
}

func (s *Service) set(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: marshal for %s failed: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		log.Printf("cache: invalidate %s failed: %v", key, err)
	}
}
