package store

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	fields    map[string]string
	expiresAt time.Time // zero means no expiry
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process Store used in tests and when Redis is
// disabled. A single mutex makes every operation, including TakeToken,
// atomic.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	// Now is the clock used for TTLs and bucket refill. Tests may replace
	// it to advance time deterministically.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		Now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) GetFields(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil || e.fields == nil {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) SetFields(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	if e.fields == nil {
		e.fields = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		e.fields[k] = v
	}
	return nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.live(key); e != nil {
		e.expiresAt = s.Now().Add(ttl)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) TakeToken(_ context.Context, key string, capacity, refillPerSec float64, ttl time.Duration) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()

	tokens := capacity
	last := now
	if e := s.live(key); e != nil && e.fields != nil {
		if v, err := strconv.ParseFloat(e.fields["tokens"], 64); err == nil {
			tokens = v
		}
		if ms, err := strconv.ParseInt(e.fields["lastRefill"], 10, 64); err == nil {
			last = time.UnixMilli(ms)
		}
	}

	elapsed := now.Sub(last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	tokens = math.Min(capacity, tokens+elapsed*refillPerSec)

	allowed := tokens >= 1
	if allowed {
		tokens--
	}

	s.entries[key] = &memoryEntry{
		fields: map[string]string{
			"tokens":     strconv.FormatFloat(tokens, 'f', -1, 64),
			"lastRefill": strconv.FormatInt(now.UnixMilli(), 10),
		},
		expiresAt: now.Add(ttl),
	}

	return tokens, allowed, nil
}

// live returns the entry for key if present and not expired, lazily
// dropping expired entries.
func (s *MemoryStore) live(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if e.expired(s.Now()) {
		delete(s.entries, key)
		return nil
	}
	return e
}
