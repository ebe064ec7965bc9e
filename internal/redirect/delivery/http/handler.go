package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/metrics"
	"quantum-redirect/internal/redirect/usecase"
	"quantum-redirect/pkg/problemdetails"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	headerProcessingTime = "X-Processing-Time-Ms"
	readinessTimeout     = 2 * time.Second
	violationDetail      = "The link could not be verified. Open the original short link again."
)

// HealthCheck is one dependency probed by /readyz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Services bundles the use cases the handler serves.
type Services struct {
	Links      *usecase.LinkService
	Genesis    *usecase.GenesisIssuer
	Validation *usecase.ValidationHub
	Routing    *usecase.RoutingGateway
	Metrics    *metrics.Metrics // may be nil
}

// Handler handles the three redirect hops and the operational endpoints
type Handler struct {
	svc    Services
	checks []HealthCheck
	logger *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc Services, checks []HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		checks: checks,
		logger: logger,
	}
}

// Genesis handles GET /{code}
func (h *Handler) Genesis(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.svc.Links.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			problem := problemdetails.New(
				http.StatusNotFound,
				problemdetails.TypeNotFound,
				"Not Found",
				"Short URL not found: "+code,
			)
			writeProblem(w, problem)
			return
		}

		h.logger.Error("failed to resolve short code", zap.String("short_code", code), zap.Error(err))
		writeProblem(w, genesisFailed())
		return
	}

	params, err := domain.ParseQuery(r.URL.RawQuery)
	if err != nil {
		// Malformed pairs are dropped; the rest still travels with the click
		h.logger.Debug("skipped malformed query parameters", zap.String("short_code", code), zap.Error(err))
	}

	res, err := h.svc.Genesis.Issue(r.Context(), usecase.GenesisInput{
		LinkID:         link.ID,
		ClientIP:       r.RemoteAddr,
		UserAgent:      r.UserAgent(),
		Referrer:       r.Referer(),
		OriginalParams: params,
	})
	if err != nil {
		writeProblem(w, genesisFailed())
		return
	}

	hopRedirect(w, r, res.RedirectURL, res.ProcessingTimeMs())
}

// Validate handles GET /validate?token=
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Validation.Validate(r.Context(), usecase.ValidationInput{
		Token:     r.URL.Query().Get("token"),
		ClientIP:  r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.writeStageError(w, err)
		return
	}

	hopRedirect(w, r, res.RedirectURL, res.ProcessingTime.Milliseconds())
}

// Route handles GET /route?token=
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Routing.Route(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.writeStageError(w, err)
		return
	}

	hopRedirect(w, r, res.FinalURL, res.ProcessingTimeMs())
}

// MetricsSnapshot handles GET /api/v1/metrics
func (h *Handler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.svc.Metrics == nil {
		writeJSON(w, http.StatusOK, metrics.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Metrics.Snapshot())
}

// Healthz handles GET /healthz (liveness probe)
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	writeJSON(w, http.StatusOK, resp)
}

// Readyz handles GET /readyz (readiness probe)
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			resp := HealthResponse{
				Status: "unavailable",
				Reason: c.Name + " unavailable: " + err.Error(),
			}
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// writeStageError maps Stage 2 and Stage 3 failures to problem responses. Only the violation
// category reaches the client.
func (h *Handler) writeStageError(w http.ResponseWriter, err error) {
	v, ok := domain.AsViolation(err)
	if !ok {
		problem := problemdetails.New(
			http.StatusInternalServerError,
			problemdetails.TypeInternalError,
			"Internal Server Error",
			"Internal server error",
		)
		writeProblem(w, problem)
		return
	}

	status := http.StatusForbidden
	title := "Forbidden"
	if v == domain.ErrUpstreamStoreUnavailable {
		status = http.StatusServiceUnavailable
		title = "Service Unavailable"
	}

	w.Header().Set("Cache-Control", "no-store")
	writeProblem(w, problemdetails.New(status, problemTypes[v], title, violationDetail).WithViolation(string(v)))
}

var problemTypes = map[domain.Violation]string{
	domain.ErrTokenExpired:             problemdetails.TypeTokenExpired,
	domain.ErrInvalidSignature:         problemdetails.TypeInvalidSignature,
	domain.ErrInvalidAudience:          problemdetails.TypeInvalidAudience,
	domain.ErrReplayAttack:             problemdetails.TypeReplayAttack,
	domain.ErrContextMismatchIP:        problemdetails.TypeContextMismatchIP,
	domain.ErrContextMismatchUA:        problemdetails.TypeContextMismatchUA,
	domain.ErrLinkNotFound:             problemdetails.TypeLinkNotFound,
	domain.ErrLinkInactive:             problemdetails.TypeLinkInactive,
	domain.ErrUpstreamStoreUnavailable: problemdetails.TypeUpstreamStoreUnavailable,
}

func genesisFailed() *problemdetails.ProblemDetail {
	return problemdetails.New(
		http.StatusInternalServerError,
		problemdetails.TypeGenesisFailed,
		"Internal Server Error",
		"genesis_failed",
	)
}

// hopRedirect issues a 302 that is never cached and never forwards the token-bearing URL as a
// Referer.
func hopRedirect(w http.ResponseWriter, r *http.Request, location string, processingMs int64) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set(headerProcessingTime, strconv.FormatInt(processingMs, 10))
	http.Redirect(w, r, location, http.StatusFound)
}
