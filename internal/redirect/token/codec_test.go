package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"quantum-redirect/internal/redirect/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	genesisSecret = []byte("genesis-secret-0123456789abcdef0123")
	transitSecret = []byte("transit-secret-0123456789abcdef0123")
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec() (*Codec, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewCodec("quantum-redirect", WithClock(clock.Now)), clock
}

func sampleGenesis() domain.GenesisClaims {
	return domain.GenesisClaims{
		ClickID:        "click-1",
		LinkID:         42,
		IPHash:         "iphash",
		UAHash:         "uahash",
		Referrer:       "https://news.example.org/",
		OriginalParams: domain.ParamsOf("email", "a@b.com", "campaign", "spring", "utm_source", "mail"),
	}
}

func TestCodec_GenesisRoundTrip(t *testing.T) {
	codec, clock := newTestCodec()
	in := sampleGenesis()

	raw, meta, err := codec.Encode(GenesisClaims(in), genesisSecret, 15*time.Second)
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 3)
	assert.Equal(t, domain.AudienceValidationHub, meta.Audience)
	assert.Equal(t, clock.now, meta.IssuedAt)
	assert.Equal(t, meta.IssuedAt, meta.NotBefore)
	assert.Equal(t, clock.now.Add(15*time.Second), meta.ExpiresAt)

	claims, err := codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	require.NoError(t, err)

	out := claims.Genesis()
	assert.Equal(t, in.ClickID, out.ClickID)
	assert.Equal(t, in.LinkID, out.LinkID)
	assert.Equal(t, in.IPHash, out.IPHash)
	assert.Equal(t, in.UAHash, out.UAHash)
	assert.Equal(t, in.Referrer, out.Referrer)
	assert.True(t, in.OriginalParams.Equal(out.OriginalParams))
	assert.Equal(t, meta.ID, claims.ID)
}

func TestCodec_TransitRoundTrip(t *testing.T) {
	codec, clock := newTestCodec()
	in := domain.TransitClaims{
		ClickID:        "click-1",
		LinkID:         7,
		OriginalParams: domain.ParamsOf("user_id", "u-99"),
		ValidatedAt:    clock.now,
		SecurityScore:  100,
	}

	raw, _, err := codec.Encode(TransitClaims(in), transitSecret, 10*time.Second)
	require.NoError(t, err)

	claims, err := codec.Decode(raw, transitSecret, domain.AudienceRoutingGateway)
	require.NoError(t, err)

	out := claims.Transit()
	assert.Equal(t, in.ClickID, out.ClickID)
	assert.Equal(t, in.LinkID, out.LinkID)
	assert.Equal(t, 100, out.SecurityScore)
	assert.True(t, in.ValidatedAt.Equal(out.ValidatedAt))
	assert.True(t, in.OriginalParams.Equal(out.OriginalParams))
}

func TestCodec_EmptyParamsRoundTrip(t *testing.T) {
	codec, _ := newTestCodec()
	in := sampleGenesis()
	in.OriginalParams = domain.Params{}

	raw, _, err := codec.Encode(GenesisClaims(in), genesisSecret, time.Second)
	require.NoError(t, err)

	claims, err := codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	require.NoError(t, err)
	assert.Equal(t, 0, claims.OriginalParams.Len())
}

func TestCodec_OriginalParamsAreByteExact(t *testing.T) {
	tests := []struct {
		name   string
		params domain.Params
	}{
		{name: "invalid utf-8 value", params: domain.ParamsOf("sig", "\xff\xfe")},
		{name: "invalid utf-8 key", params: domain.ParamsOf("\xc3\x28", "1")},
		{name: "non-ascii", params: domain.ParamsOf("name", "Zoë", "city", "東京", "emoji", "🚀")},
		{name: "reserved characters", params: domain.ParamsOf("q", "a&b=c", "plus", "1+1", "pct", "100%")},
		{name: "empty value and key", params: domain.ParamsOf("flag", "", "", "anon")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, _ := newTestCodec()
			in := sampleGenesis()
			in.OriginalParams = tt.params

			raw, _, err := codec.Encode(GenesisClaims(in), genesisSecret, time.Second)
			require.NoError(t, err)

			claims, err := codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
			require.NoError(t, err)

			got := claims.Genesis().OriginalParams
			assert.True(t, tt.params.Equal(got), "want %q, got %q", tt.params.Encode(), got.Encode())
			got.Each(func(k, v string) {
				want, _ := tt.params.Get(k)
				assert.Equal(t, []byte(want), []byte(v))
			})
		})
	}
}

func TestCodec_StartedAtTravelsWithMillisecondPrecision(t *testing.T) {
	codec, clock := newTestCodec()
	started := clock.now.Add(-1234 * time.Millisecond)

	in := sampleGenesis()
	in.StartedAt = started
	raw, _, err := codec.Encode(GenesisClaims(in), genesisSecret, time.Second)
	require.NoError(t, err)
	claims, err := codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	require.NoError(t, err)
	assert.True(t, started.Equal(claims.Genesis().StartedAt))

	raw, _, err = codec.Encode(TransitClaims(domain.TransitClaims{ClickID: "c", LinkID: 1, StartedAt: started}), transitSecret, time.Second)
	require.NoError(t, err)
	claims, err = codec.Decode(raw, transitSecret, domain.AudienceRoutingGateway)
	require.NoError(t, err)
	assert.True(t, started.Equal(claims.Transit().StartedAt))
}

func TestCodec_ZeroStartedAtStaysZero(t *testing.T) {
	codec, _ := newTestCodec()
	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, time.Second)
	require.NoError(t, err)
	claims, err := codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	require.NoError(t, err)
	assert.True(t, claims.Genesis().StartedAt.IsZero())
}

func TestCodec_UniqueNonces(t *testing.T) {
	codec, _ := newTestCodec()
	seen := make(map[string]struct{})

	for i := 0; i < 200; i++ {
		_, meta, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, time.Second)
		require.NoError(t, err)
		assert.Len(t, meta.ID, nonceLength)
		_, dup := seen[meta.ID]
		require.False(t, dup, "duplicate jti %s", meta.ID)
		seen[meta.ID] = struct{}{}
	}
}

func TestCodec_ExpiredToken(t *testing.T) {
	codec, clock := newTestCodec()
	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	clock.Advance(16 * time.Second)

	_, err = codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestCodec_ExpiredTokenWithBadSignatureStillReportsExpired(t *testing.T) {
	codec, clock := newTestCodec()
	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	_, err = codec.Decode(raw, transitSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.False(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestCodec_ExpiredAndWrongAudienceReportsExpired(t *testing.T) {
	codec, clock := newTestCodec()
	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	clock.Advance(time.Minute)

	_, err = codec.Decode(raw, genesisSecret, domain.AudienceRoutingGateway)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestCodec_NotYetValid(t *testing.T) {
	codec, clock := newTestCodec()
	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	clock.Advance(-5 * time.Second)

	_, err = codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestCodec_LeewayToleratesSkew(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := NewCodec("quantum-redirect", WithClock(clock.Now), WithLeeway(2*time.Second))

	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 10*time.Second)
	require.NoError(t, err)

	clock.Advance(11 * time.Second)
	_, err = codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	assert.NoError(t, err)
}

func TestCodec_WrongSecret(t *testing.T) {
	codec, _ := newTestCodec()
	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	_, err = codec.Decode(raw, transitSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestCodec_TamperedPayload(t *testing.T) {
	codec, _ := newTestCodec()
	raw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	forged := GenesisClaims(sampleGenesis())
	forged.LinkID = 999
	forged.ID = "forged"
	forged.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	forgedRaw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &forged).SignedString([]byte("attacker-key"))
	require.NoError(t, err)
	forgedParts := strings.Split(forgedRaw, ".")

	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]
	_, err = codec.Decode(tampered, genesisSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestCodec_RejectsNoneAlgorithm(t *testing.T) {
	codec, _ := newTestCodec()
	claims := GenesisClaims(sampleGenesis())
	claims.ID = "x"
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))

	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, &claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestCodec_Garbage(t *testing.T) {
	codec, _ := newTestCodec()

	for _, raw := range []string{"", "abc", "a.b.c", "....."} {
		_, err := codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature, raw)
	}
}

func TestCodec_AudienceBinding(t *testing.T) {
	codec, _ := newTestCodec()

	genesisRaw, _, err := codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	_, err = codec.Decode(genesisRaw, genesisSecret, domain.AudienceRoutingGateway)
	assert.ErrorIs(t, err, domain.ErrInvalidAudience)

	transitRaw, _, err := codec.Encode(TransitClaims(domain.TransitClaims{ClickID: "c", LinkID: 1}), transitSecret, 10*time.Second)
	require.NoError(t, err)

	_, err = codec.Decode(transitRaw, transitSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrInvalidAudience)
}

func TestCodec_ForeignIssuer(t *testing.T) {
	codec, clock := newTestCodec()
	other := NewCodec("someone-else", WithClock(clock.Now))

	raw, _, err := other.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 15*time.Second)
	require.NoError(t, err)

	_, err = codec.Decode(raw, genesisSecret, domain.AudienceValidationHub)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestCodec_EncodeValidatesInput(t *testing.T) {
	codec, _ := newTestCodec()

	_, _, err := codec.Encode(GenesisClaims(sampleGenesis()), nil, time.Second)
	assert.Error(t, err)

	_, _, err = codec.Encode(GenesisClaims(sampleGenesis()), genesisSecret, 0)
	assert.Error(t, err)
}
