package usecase_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/nonce"
	"quantum-redirect/internal/redirect/testutil/mocks"
	"quantum-redirect/internal/redirect/token"
	"quantum-redirect/internal/redirect/usecase"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	baseURL   = "https://q.example.com"
	clientIP  = "203.0.113.7:52100"
	userAgent = "Mozilla/5.0 (X11; Linux x86_64)"
)

var (
	genesisSecret = []byte("genesis-secret-0123456789abcdef0123")
	transitSecret = []byte("transit-secret-0123456789abcdef0123")
)

type ledgerEvent struct {
	ClickID  string
	State    domain.State
	Metadata map[string]string
}

type fakeLedger struct {
	mu     sync.Mutex
	events []ledgerEvent
	err    error
}

func (l *fakeLedger) RecordEvent(_ context.Context, clickID string, state domain.State, metadata map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ledgerEvent{ClickID: clickID, State: state, Metadata: metadata})
	return l.err
}

func (l *fakeLedger) find(clickID string, state domain.State) (ledgerEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.ClickID == clickID && e.State == state {
			return e, true
		}
	}
	return ledgerEvent{}, false
}

func (l *fakeLedger) has(clickID string, state domain.State) bool {
	_, ok := l.find(clickID, state)
	return ok
}

func (l *fakeLedger) hasState(state domain.State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.State == state {
			return true
		}
	}
	return false
}

type recordedViolation struct {
	Violation domain.Violation
	Enforced  bool
}

type fakeRecorder struct {
	mu         sync.Mutex
	started    int
	completed  int
	totals     []time.Duration
	violations []recordedViolation
	stages     []domain.State
}

func (r *fakeRecorder) RecordRedirectStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *fakeRecorder) RecordRedirectCompleted(total time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	r.totals = append(r.totals, total)
}

func (r *fakeRecorder) RecordViolation(v domain.Violation, enforced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, recordedViolation{Violation: v, Enforced: enforced})
}

func (r *fakeRecorder) RecordStage(state domain.State, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, state)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type pipeline struct {
	clock      *fakeClock
	codec      *token.Codec
	fp         usecase.Fingerprinter
	links      *mocks.MockLinkRepository
	ledger     *fakeLedger
	recorder   *fakeRecorder
	genesis    *usecase.GenesisIssuer
	validation *usecase.ValidationHub
	routing    *usecase.RoutingGateway
}

type pipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	lenient  bool
	defaults domain.Params
	logger   *zap.Logger
	nonces   usecase.NonceStore
}

func lenient() pipelineOption {
	return func(c *pipelineConfig) { c.lenient = true }
}

func withDefaults(p domain.Params) pipelineOption {
	return func(c *pipelineConfig) { c.defaults = p }
}

func withLogger(l *zap.Logger) pipelineOption {
	return func(c *pipelineConfig) { c.logger = l }
}

func withNonces(n usecase.NonceStore) pipelineOption {
	return func(c *pipelineConfig) { c.nonces = n }
}

func newPipeline(t *testing.T, opts ...pipelineOption) *pipeline {
	t.Helper()

	cfg := pipelineConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := &fakeClock{now: time.Now()}
	codec := token.NewCodec("quantum-redirect", token.WithClock(clock.Now))
	fp := usecase.NewFingerprinter("pepper")
	links := mocks.NewMockLinkRepository(t)
	ledger := &fakeLedger{}
	recorder := &fakeRecorder{}
	if cfg.nonces == nil {
		cfg.nonces = nonce.NewMemoryStore(nonce.DefaultTTL)
	}

	return &pipeline{
		clock:    clock,
		codec:    codec,
		fp:       fp,
		links:    links,
		ledger:   ledger,
		recorder: recorder,
		genesis: usecase.NewGenesisIssuer(codec, usecase.GenesisConfig{
			BaseURL:     baseURL,
			Secret:      genesisSecret,
			TTL:         15 * time.Second,
			Fingerprint: fp,
			Budget:      100 * time.Millisecond,
		}, ledger, recorder, cfg.logger),
		validation: usecase.NewValidationHub(codec, cfg.nonces, usecase.ValidationConfig{
			BaseURL:       baseURL,
			GenesisSecret: genesisSecret,
			TransitSecret: transitSecret,
			TransitTTL:    10 * time.Second,
			LenientMode:   cfg.lenient,
			Fingerprint:   fp,
			Budget:        150 * time.Millisecond,
		}, ledger, recorder, cfg.logger),
		routing: usecase.NewRoutingGateway(codec, cfg.nonces, links, usecase.RoutingConfig{
			TransitSecret:    transitSecret,
			TrackingDefaults: cfg.defaults,
			Budget:           100 * time.Millisecond,
		}, ledger, recorder, cfg.logger),
	}
}

func (p *pipeline) issue(t *testing.T, linkID int64, params domain.Params) *usecase.GenesisResult {
	t.Helper()
	res, err := p.genesis.Issue(context.Background(), usecase.GenesisInput{
		LinkID:         linkID,
		ClientIP:       clientIP,
		UserAgent:      userAgent,
		Referrer:       "https://news.example.org/",
		OriginalParams: params,
	})
	require.NoError(t, err)
	return res
}

func (p *pipeline) validate(t *testing.T, genesis *usecase.GenesisResult) *usecase.ValidationResult {
	t.Helper()
	res, err := p.validation.Validate(context.Background(), usecase.ValidationInput{
		Token:     tokenFrom(t, genesis.RedirectURL),
		ClientIP:  clientIP,
		UserAgent: userAgent,
	})
	require.NoError(t, err)
	return res
}

func tokenFrom(t *testing.T, redirect string) string {
	t.Helper()
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	raw := u.Query().Get("token")
	require.NotEmpty(t, raw)
	return raw
}

func (r *fakeRecorder) snapshotViolations() []recordedViolation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedViolation(nil), r.violations...)
}
