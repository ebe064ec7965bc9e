package domain

import "time"

// Audiences bind each token to exactly one verifying stage.
const (
	AudienceValidationHub  = "validation-hub"
	AudienceRoutingGateway = "routing-gateway"
)

// GenesisClaims binds a click to its client context and the caller's original parameters.
type GenesisClaims struct {
	ClickID        string
	LinkID         int64
	IPHash         string
	UAHash         string
	Referrer       string
	OriginalParams Params
	// StartedAt is when Stage 1 began handling the click.
	StartedAt time.Time
}

// TransitClaims authorizes the final routing hop once Stage 2 has verified the click.
type TransitClaims struct {
	ClickID        string
	LinkID         int64
	OriginalParams Params
	ValidatedAt    time.Time
	SecurityScore  int
	// StartedAt is copied from the Genesis claims and ends up in the end-to-end timing.
	StartedAt time.Time
}

// TokenMeta carries the registered claims stamped by the codec.
type TokenMeta struct {
	ID        string
	Issuer    string
	Audience  string
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}
