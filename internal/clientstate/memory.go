package clientstate

import (
	"context"
	"sync"
	"time"
)

type memoryValue struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps client state in process memory. It backs tests and
// single-instance deployments that run without redis.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]memoryValue
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryValue),
		now:    time.Now,
	}
}

func (s *MemoryStore) SetClockInStart(_ context.Context, userID int, start time.Time, ttl time.Duration) error {
	s.set(clockInKey(userID), []byte(start.Format(time.RFC3339)), ttl)
	return nil
}

func (s *MemoryStore) ClockInStart(_ context.Context, userID int) (time.Time, error) {
	data, ok := s.get(clockInKey(userID))
	if !ok {
		return time.Time{}, ErrNotFound
	}
	start, err := time.Parse(time.RFC3339, string(data))
	if err != nil {
		return time.Time{}, ErrNotFound
	}
	return start, nil
}

func (s *MemoryStore) ClearClockInStart(_ context.Context, userID int) error {
	s.delete(clockInKey(userID))
	return nil
}

func (s *MemoryStore) SetCached(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.set(cacheKey(key), value, ttl)
	return nil
}

func (s *MemoryStore) GetCached(_ context.Context, key string) ([]byte, error) {
	data, ok := s.get(cacheKey(key))
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *MemoryStore) DeleteCached(_ context.Context, key string) error {
	s.delete(cacheKey(key))
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID int) error {
	return s.ClearClockInStart(ctx, userID)
}

// Sweep drops expired values and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, v := range s.values {
		if !v.expiresAt.IsZero() && v.expiresAt.Before(now) {
			delete(s.values, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) set(key string, data []byte, ttl time.Duration) {
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.values[key] = memoryValue{data: data, expiresAt: expires}
	s.mu.Unlock()
}

func (s *MemoryStore) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	if !v.expiresAt.IsZero() && v.expiresAt.Before(s.now()) {
		delete(s.values, key)
		return nil, false
	}
	return v.data, true
}

func (s *MemoryStore) delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}
