package nonce

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"
)

const defaultPurgeInterval = 10 * time.Second

// reserveQuery inserts the jti, or takes over a row whose TTL has already lapsed. A live row
// leaves the statement a no-op, which RowsAffected reports as zero.
const reserveQuery = `
INSERT INTO nonces (jti, expires_at) VALUES (?, ?)
ON CONFLICT(jti) DO UPDATE SET expires_at = excluded.expires_at
WHERE nonces.expires_at <= ?`

// SQLiteStore keeps nonces in the nonces table. The primary key provides the unique
// constraint; expired rows are purged lazily from the Reserve path.
type SQLiteStore struct {
	db            *sql.DB
	ttl           time.Duration
	purgeInterval time.Duration
	lastPurge     atomic.Int64
	now           func() time.Time
}

func NewSQLiteStore(db *sql.DB, ttl time.Duration) *SQLiteStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLiteStore{
		db:            db,
		ttl:           ttl,
		purgeInterval: defaultPurgeInterval,
		now:           time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

func (s *SQLiteStore) Reserve(ctx context.Context, jti string) (bool, error) {
	now := s.now()
	s.maybePurge(ctx, now)

	res, err := s.db.ExecContext(ctx, reserveQuery, jti, now.Add(s.ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("sqlite nonce store: reserve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite nonce store: rows affected: %w", err)
	}
	return n == 0, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Purge deletes every expired row and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nonces WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite nonce store: purge: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) maybePurge(ctx context.Context, now time.Time) {
	last := s.lastPurge.Load()
	if now.UnixNano()-last < int64(s.purgeInterval) {
		return
	}
	if !s.lastPurge.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	// Purge failures are harmless: expired rows are also reclaimed by the upsert.
	_, _ = s.Purge(ctx)
}
