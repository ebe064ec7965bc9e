// Package nonce implements the single-use token ledger that defeats replay.
//
// Every backend offers the same contract: Reserve atomically records a jti and reports whether
// it had already been recorded within its TTL. Exactly one of any number of concurrent callers
// presenting the same jti observes alreadyUsed == false.
package nonce

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a redeemed jti is remembered. It must exceed every token TTL.
const DefaultTTL = 60 * time.Second

// Store is an atomic insert-if-absent ledger of token ids.
type Store interface {
	Reserve(ctx context.Context, jti string) (alreadyUsed bool, err error)
}

// Pinger is implemented by durable backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
