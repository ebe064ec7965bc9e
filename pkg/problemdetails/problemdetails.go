package problemdetails

import "fmt"

const (
	TypeNotFound           = "not-found"
	TypeRateLimitExceeded  = "rate-limit-exceeded"
	TypeInternalError      = "internal-error"
	TypeServiceUnavailable = "service-unavailable"
	TypeGenesisFailed      = "genesis-failed"

	TypeTokenExpired             = "token-expired"
	TypeInvalidSignature         = "invalid-signature"
	TypeInvalidAudience          = "invalid-audience"
	TypeReplayAttack             = "replay-attack"
	TypeContextMismatchIP        = "context-mismatch-ip"
	TypeContextMismatchUA        = "context-mismatch-ua"
	TypeLinkNotFound             = "link-not-found"
	TypeLinkInactive             = "link-inactive"
	TypeUpstreamStoreUnavailable = "upstream-store-unavailable"
)

type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	// Violation is the machine-readable protocol violation category, when there is one.
	Violation string `json:"violation,omitempty"`
}

func New(status int, problemType, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://api.example.com/problems/%s", problemType),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// WithViolation tags the problem with a violation category.
func (p *ProblemDetail) WithViolation(violation string) *ProblemDetail {
	p.Violation = violation
	return p
}
