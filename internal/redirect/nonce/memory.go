package nonce

import (
	"context"
	"sync"
	"time"
)

const memoryBuckets = 6

// MemoryStore is a process-local, time-bucketed ledger. Entries land in the bucket for the
// current time slice and whole buckets are dropped once they fall out of the TTL window, so
// expiry is lazy and needs no sweeper goroutine. Replay protection is limited to this process.
type MemoryStore struct {
	mu      sync.Mutex
	width   time.Duration
	span    int64
	buckets map[int64]map[string]struct{}
	now     func() time.Time
}

// NewMemoryStore creates a ledger that remembers each jti for at least ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	width := ttl / memoryBuckets
	if width <= 0 {
		width = ttl
	}
	return &MemoryStore{
		width:   width,
		span:    int64(memoryBuckets),
		buckets: make(map[int64]map[string]struct{}),
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Reserve(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.now().UnixNano() / int64(s.width)
	s.purge(current)

	for _, bucket := range s.buckets {
		if _, ok := bucket[jti]; ok {
			return true, nil
		}
	}

	bucket, ok := s.buckets[current]
	if !ok {
		bucket = make(map[string]struct{})
		s.buckets[current] = bucket
	}
	bucket[jti] = struct{}{}
	return false, nil
}

// Len returns the number of remembered ids, including ones awaiting purge.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}

// purge drops buckets older than the TTL window. Callers hold mu.
func (s *MemoryStore) purge(current int64) {
	for idx := range s.buckets {
		if idx < current-s.span {
			delete(s.buckets, idx)
		}
	}
}
