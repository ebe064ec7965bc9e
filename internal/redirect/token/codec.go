// Package token signs and verifies the short-lived, audience-bound tokens carried between the
// three redirect hops. Tokens are compact HS256 JWTs; every stage signs with its own secret.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quantum-redirect/internal/redirect/domain"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// nonceLength gives 22 * 6 = 132 bits of entropy with the default nanoid alphabet.
const nonceLength = 22

var errEmptySecret = errors.New("token: empty signing secret")

// Claims is the wire claim set shared by Genesis and Transit tokens.
// The subject holds the click id.
type Claims struct {
	LinkID         int64            `json:"lid"`
	IPHash         string           `json:"iph,omitempty"`
	UAHash         string           `json:"uah,omitempty"`
	Referrer       string           `json:"ref,omitempty"`
	OriginalParams QueryParams      `json:"op"`
	ValidatedAt    *jwt.NumericDate `json:"vat,omitempty"`
	SecurityScore  int              `json:"ssc,omitempty"`
	// StartedAt is the Unix millisecond at which Stage 1 began handling the click.
	StartedAt int64 `json:"sat,omitempty"`
	jwt.RegisteredClaims
}

// QueryParams carries parameters as a percent-encoded query string. JSON strings must be valid
// UTF-8, so the encoded form is what keeps arbitrary bytes intact across hops.
type QueryParams struct {
	domain.Params
}

func (q QueryParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Params.Encode())
}

func (q *QueryParams) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("token: original params: %w", err)
	}
	p, err := domain.ParseQuery(raw)
	if err != nil {
		return fmt.Errorf("token: original params: %w", err)
	}
	q.Params = p
	return nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// GenesisClaims builds the Stage 1 claim set addressed to the validation hub.
func GenesisClaims(g domain.GenesisClaims) Claims {
	return Claims{
		LinkID:         g.LinkID,
		IPHash:         g.IPHash,
		UAHash:         g.UAHash,
		Referrer:       g.Referrer,
		OriginalParams: QueryParams{g.OriginalParams.Clone()},
		StartedAt:      unixMilli(g.StartedAt),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  g.ClickID,
			Audience: jwt.ClaimStrings{domain.AudienceValidationHub},
		},
	}
}

// TransitClaims builds the Stage 2 claim set addressed to the routing gateway.
func TransitClaims(t domain.TransitClaims) Claims {
	return Claims{
		LinkID:         t.LinkID,
		OriginalParams: QueryParams{t.OriginalParams.Clone()},
		ValidatedAt:    jwt.NewNumericDate(t.ValidatedAt),
		SecurityScore:  t.SecurityScore,
		StartedAt:      unixMilli(t.StartedAt),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  t.ClickID,
			Audience: jwt.ClaimStrings{domain.AudienceRoutingGateway},
		},
	}
}

func (c *Claims) Genesis() domain.GenesisClaims {
	return domain.GenesisClaims{
		ClickID:        c.Subject,
		LinkID:         c.LinkID,
		IPHash:         c.IPHash,
		UAHash:         c.UAHash,
		Referrer:       c.Referrer,
		OriginalParams: c.OriginalParams.Params,
		StartedAt:      fromUnixMilli(c.StartedAt),
	}
}

func (c *Claims) Transit() domain.TransitClaims {
	t := domain.TransitClaims{
		ClickID:        c.Subject,
		LinkID:         c.LinkID,
		OriginalParams: c.OriginalParams.Params,
		SecurityScore:  c.SecurityScore,
		StartedAt:      fromUnixMilli(c.StartedAt),
	}
	if c.ValidatedAt != nil {
		t.ValidatedAt = c.ValidatedAt.Time
	}
	return t
}

// Meta returns the registered claims stamped at encode time.
func (c *Claims) Meta() domain.TokenMeta {
	m := domain.TokenMeta{ID: c.ID, Issuer: c.Issuer}
	if len(c.Audience) > 0 {
		m.Audience = c.Audience[0]
	}
	if c.IssuedAt != nil {
		m.IssuedAt = c.IssuedAt.Time
	}
	if c.NotBefore != nil {
		m.NotBefore = c.NotBefore.Time
	}
	if c.ExpiresAt != nil {
		m.ExpiresAt = c.ExpiresAt.Time
	}
	return m
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for stamping and validation.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// WithLeeway tolerates small clock skew between hosts when checking exp and nbf.
func WithLeeway(leeway time.Duration) Option {
	return func(c *Codec) {
		c.leeway = leeway
	}
}

// Codec encodes and decodes protocol tokens. It holds no secrets; callers pass the
// stage-specific secret on every call. A Codec is safe for concurrent use.
type Codec struct {
	issuer string
	leeway time.Duration
	now    func() time.Time
}

func NewCodec(issuer string, opts ...Option) *Codec {
	c := &Codec{
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode stamps iat, nbf (= iat), exp (= iat + ttl), a random jti and the issuer onto claims,
// then signs them with secret.
func (c *Codec) Encode(claims Claims, secret []byte, ttl time.Duration) (string, domain.TokenMeta, error) {
	if len(secret) == 0 {
		return "", domain.TokenMeta{}, errEmptySecret
	}
	if ttl <= 0 {
		return "", domain.TokenMeta{}, fmt.Errorf("token: ttl must be positive, got %s", ttl)
	}

	jti, err := gonanoid.New(nonceLength)
	if err != nil {
		return "", domain.TokenMeta{}, fmt.Errorf("token: generate jti: %w", err)
	}

	now := c.now()
	claims.ID = jti
	claims.Issuer = c.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(secret)
	if err != nil {
		return "", domain.TokenMeta{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, claims.Meta(), nil
}

// Decode verifies the MAC, the validity window and the audience, in that order of concern.
// Failures wrap exactly one of domain.ErrTokenExpired, domain.ErrInvalidSignature or
// domain.ErrInvalidAudience. An expired token reports ErrTokenExpired even when its signature
// does not verify.
func (c *Codec) Decode(raw string, secret []byte, expectedAudience string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSignature, errEmptySecret)
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if c.unverifiedExpired(raw) {
			return nil, fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSignature, err)
	}

	if err := c.validate(claims, expectedAudience); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) validate(claims *Claims, expectedAudience string) error {
	now := c.now()

	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: missing exp", domain.ErrInvalidSignature)
	}
	if now.After(claims.ExpiresAt.Time.Add(c.leeway)) {
		return fmt.Errorf("%w: expired at %s", domain.ErrTokenExpired, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time.Add(-c.leeway)) {
		return fmt.Errorf("%w: not valid before %s", domain.ErrTokenExpired, claims.NotBefore.Time.UTC().Format(time.RFC3339))
	}

	if len(claims.Audience) != 1 || claims.Audience[0] != expectedAudience {
		return fmt.Errorf("%w: want %q", domain.ErrInvalidAudience, expectedAudience)
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return fmt.Errorf("%w: unexpected issuer", domain.ErrInvalidSignature)
	}
	if claims.ID == "" || claims.Subject == "" {
		return fmt.Errorf("%w: missing jti or subject", domain.ErrInvalidSignature)
	}
	return nil
}

func (c *Codec) unverifiedExpired(raw string) bool {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && c.now().After(claims.ExpiresAt.Time.Add(c.leeway))
}
