package domain

import "errors"

// Violation is a classified protocol failure. Values are comparable, so callers branch with
// errors.Is or extract the kind with AsViolation for telemetry.
type Violation string

func (v Violation) Error() string {
	return string(v)
}

const (
	ErrTokenExpired             Violation = "token_expired"
	ErrInvalidSignature         Violation = "invalid_signature"
	ErrInvalidAudience          Violation = "invalid_audience"
	ErrReplayAttack             Violation = "replay_attack"
	ErrContextMismatchIP        Violation = "context_mismatch_ip"
	ErrContextMismatchUA        Violation = "context_mismatch_ua"
	ErrLinkNotFound             Violation = "link_not_found"
	ErrLinkInactive             Violation = "link_inactive"
	ErrUpstreamStoreUnavailable Violation = "upstream_store_unavailable"
)

// Violations lists the full taxonomy in a stable order.
var Violations = []Violation{
	ErrTokenExpired,
	ErrInvalidSignature,
	ErrInvalidAudience,
	ErrReplayAttack,
	ErrContextMismatchIP,
	ErrContextMismatchUA,
	ErrLinkNotFound,
	ErrLinkInactive,
	ErrUpstreamStoreUnavailable,
}

var (
	// ErrGenesisFailed is the only error Stage 1 surfaces to clients.
	ErrGenesisFailed = errors.New("genesis_failed")
	ErrInvalidURL    = errors.New("invalid url")
	// ErrShortCodeConflict is returned when no free short code was found within the retry budget.
	ErrShortCodeConflict = errors.New("short code generation failed after max retries")
	ErrInvalidShortCode  = errors.New("invalid short code")
	// ErrShortCodeTaken is returned by link stores when the short code already exists.
	ErrShortCodeTaken = errors.New("short code already exists")
)

// AsViolation extracts the Violation carried by err, if any.
func AsViolation(err error) (Violation, bool) {
	var v Violation
	if errors.As(err, &v) {
		return v, true
	}
	return "", false
}
