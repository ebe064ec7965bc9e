package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"quantum-redirect/internal/redirect/database"
	httphandler "quantum-redirect/internal/redirect/delivery/http"
	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/metrics"
	"quantum-redirect/internal/redirect/nonce"
	"quantum-redirect/internal/redirect/repository/sqlite"
	"quantum-redirect/internal/redirect/token"
	"quantum-redirect/internal/redirect/usecase"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	baseURL   = "http://q.test"
	clientIP  = "198.51.100.10:41000"
	userAgent = "Mozilla/5.0 (X11; Linux x86_64)"
)

type serverOptions struct {
	lenient       bool
	genesisSecret []byte
	nonces        usecase.NonceStore
	rateLimit     int
	checks        []httphandler.HealthCheck
	defaults      domain.Params
	proxies       []string
}

type testServer struct {
	router  http.Handler
	links   *sqlite.LinkRepository
	ledger  *sqlite.ClickLedger
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	db, err := database.OpenDB(filepath.Join(t.TempDir(), "quantum.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	if opts.genesisSecret == nil {
		opts.genesisSecret = []byte("genesis-secret-0123456789abcdef0123")
	}
	if opts.nonces == nil {
		opts.nonces = nonce.NewMemoryStore(nonce.DefaultTTL)
	}
	transitSecret := []byte("transit-secret-0123456789abcdef0123")

	logger := zap.NewNop()
	codec := token.NewCodec("quantum-redirect")
	fp := usecase.NewFingerprinter("pepper")
	links := sqlite.NewLinkRepository(db)
	ledger := sqlite.NewClickLedger(db)
	m := metrics.New()

	svc := httphandler.Services{
		Links: usecase.NewLinkService(links, logger),
		Genesis: usecase.NewGenesisIssuer(codec, usecase.GenesisConfig{
			BaseURL:     baseURL,
			Secret:      opts.genesisSecret,
			TTL:         15 * time.Second,
			Fingerprint: fp,
		}, ledger, m, logger),
		Validation: usecase.NewValidationHub(codec, opts.nonces, usecase.ValidationConfig{
			BaseURL:       baseURL,
			GenesisSecret: opts.genesisSecret,
			TransitSecret: transitSecret,
			TransitTTL:    10 * time.Second,
			LenientMode:   opts.lenient,
			Fingerprint:   fp,
		}, ledger, m, logger),
		Routing: usecase.NewRoutingGateway(codec, opts.nonces, links, usecase.RoutingConfig{
			TransitSecret:    transitSecret,
			TrackingDefaults: opts.defaults,
		}, ledger, m, logger),
		Metrics: m,
	}

	var rl *httphandler.RateLimiter
	if opts.rateLimit > 0 {
		rl = httphandler.NewRateLimiter(opts.rateLimit)
		t.Cleanup(rl.Stop)
	}

	var prefixes []netip.Prefix
	for _, p := range opts.proxies {
		prefixes = append(prefixes, netip.MustParsePrefix(p))
	}
	proxies := httphandler.NewTrustedProxies(prefixes)

	return &testServer{
		router:  httphandler.NewRouter(httphandler.NewHandler(svc, opts.checks, logger), logger, rl, proxies),
		links:   links,
		ledger:  ledger,
		metrics: m,
	}
}

func (s *testServer) addLink(t *testing.T, code, destination string) *domain.ShortLink {
	t.Helper()
	link, err := s.links.Save(context.Background(), code, destination)
	require.NoError(t, err)
	return link
}

func (s *testServer) get(target, remoteAddr, ua string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("User-Agent", ua)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// hop performs one request from the default client and requires a 302.
func (s *testServer) hop(t *testing.T, target string) string {
	t.Helper()
	rr := s.get(target, clientIP, userAgent)
	require.Equal(t, http.StatusFound, rr.Code, rr.Body.String())
	location := rr.Header().Get("Location")
	require.NotEmpty(t, location)
	return location
}

func httptestRequest(target, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("User-Agent", userAgent)
	return req
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}
