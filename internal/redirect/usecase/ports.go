package usecase

import (
	"context"
	"time"

	"quantum-redirect/internal/redirect/domain"
)

// NonceStore atomically records token ids; see package nonce.
type NonceStore interface {
	Reserve(ctx context.Context, jti string) (alreadyUsed bool, err error)
}

// LinkResolver maps short codes and link ids to destinations.
type LinkResolver interface {
	// FindByShortCode returns domain.ErrLinkNotFound for unknown codes.
	FindByShortCode(ctx context.Context, code string) (*domain.ShortLink, error)
	// GetActiveLink returns domain.ErrLinkNotFound or domain.ErrLinkInactive when the link
	// cannot be routed to.
	GetActiveLink(ctx context.Context, linkID int64) (*domain.ShortLink, error)
}

// LinkRepository is the admin-side store behind LinkResolver.
type LinkRepository interface {
	LinkResolver
	Save(ctx context.Context, shortCode, destinationURL string) (*domain.ShortLink, error)
	SetStatus(ctx context.Context, shortCode string, status domain.LinkStatus) error
	List(ctx context.Context) ([]domain.ShortLink, error)
}

// ClickLedger records protocol progress per click. Recording is best effort.
type ClickLedger interface {
	RecordEvent(ctx context.Context, clickID string, state domain.State, metadata map[string]string) error
}

// Recorder receives security and performance telemetry.
type Recorder interface {
	RecordRedirectStarted()
	// RecordRedirectCompleted counts a click that reached its destination; total spans all
	// three stages.
	RecordRedirectCompleted(total time.Duration)
	// RecordViolation counts v; enforced is false when the violation was tolerated.
	RecordViolation(v domain.Violation, enforced bool)
	RecordStage(state domain.State, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordRedirectStarted()                  {}
func (nopRecorder) RecordRedirectCompleted(time.Duration)   {}
func (nopRecorder) RecordViolation(domain.Violation, bool)  {}
func (nopRecorder) RecordStage(domain.State, time.Duration) {}
