package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/token"

	"go.uber.org/zap"
)

// RoutingConfig configures Stage 3.
type RoutingConfig struct {
	TransitSecret []byte
	// TrackingDefaults are the lowest-priority parameters on every final URL.
	TrackingDefaults domain.Params
	Budget           time.Duration
}

// RoutingResult is the real destination for the click.
type RoutingResult struct {
	FinalURL       string
	ClickID        string
	ShortCode      string
	ProcessingTime time.Duration
}

func (r *RoutingResult) ProcessingTimeMs() int64 {
	return r.ProcessingTime.Milliseconds()
}

// RoutingGateway is Stage 3: it verifies the Transit token, resolves the link and builds the
// final URL.
type RoutingGateway struct {
	codec    *token.Codec
	nonces   NonceStore
	links    LinkResolver
	cfg      RoutingConfig
	events   eventSink
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewRoutingGateway creates Stage 3. ledger and recorder may be nil.
func NewRoutingGateway(codec *token.Codec, nonces NonceStore, links LinkResolver, cfg RoutingConfig, ledger ClickLedger, recorder Recorder, logger *zap.Logger) *RoutingGateway {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &RoutingGateway{
		codec:    codec,
		nonces:   nonces,
		links:    links,
		cfg:      cfg,
		events:   eventSink{ledger: ledger, logger: logger},
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Route verifies the Transit token and returns the final URL. Protocol failures wrap a
// domain.Violation; any other error is an internal fault. No URL is returned on failure.
func (g *RoutingGateway) Route(ctx context.Context, rawToken string) (*RoutingResult, error) {
	start := g.now()

	claims, err := g.codec.Decode(rawToken, g.cfg.TransitSecret, domain.AudienceRoutingGateway)
	if err != nil {
		return nil, g.reject("", err)
	}
	transit := claims.Transit()

	used, err := g.nonces.Reserve(ctx, claims.ID)
	if err != nil {
		return nil, g.reject(transit.ClickID, fmt.Errorf("%w: %w", domain.ErrUpstreamStoreUnavailable, err))
	}
	if used {
		return nil, g.reject(transit.ClickID, domain.ErrReplayAttack)
	}

	link, err := g.links.GetActiveLink(ctx, transit.LinkID)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) || errors.Is(err, domain.ErrLinkInactive) {
			return nil, g.reject(transit.ClickID, err)
		}
		g.logger.Error("failed to resolve link",
			zap.String("click_id", transit.ClickID),
			zap.Int64("link_id", transit.LinkID),
			zap.Error(err),
		)
		g.events.advance(transit.ClickID, domain.StateRouting, domain.StateRoutingFailed, map[string]string{"reason": "resolve"})
		return nil, fmt.Errorf("resolve link %d: %w", transit.LinkID, err)
	}

	finalURL, err := BuildFinalURL(
		link.DestinationURL,
		g.cfg.TrackingDefaults,
		quantumMetadata(transit.ClickID, g.now()),
		transit.OriginalParams,
	)
	if err != nil {
		g.logger.Error("failed to build final url",
			zap.String("click_id", transit.ClickID),
			zap.String("short_code", link.ShortCode),
			zap.Error(err),
		)
		g.events.advance(transit.ClickID, domain.StateRouting, domain.StateRoutingFailed, map[string]string{"reason": "destination"})
		return nil, err
	}

	end := g.now()
	elapsed := end.Sub(start)
	g.recorder.RecordStage(domain.StateRouting, elapsed)
	g.recorder.RecordRedirectCompleted(endToEnd(transit.StartedAt, start, end))
	checkBudget(g.logger, domain.StateRouting, transit.ClickID, elapsed, g.cfg.Budget)

	g.events.advance(transit.ClickID, domain.StateRouting, domain.StateComplete, map[string]string{
		"link_id":    strconv.FormatInt(link.ID, 10),
		"short_code": link.ShortCode,
	})

	return &RoutingResult{
		FinalURL:       finalURL,
		ClickID:        transit.ClickID,
		ShortCode:      link.ShortCode,
		ProcessingTime: elapsed,
	}, nil
}

// endToEnd measures a click from Stage 1 to now. Tokens without a usable start stamp fall back
// to the Stage 3 time alone.
func endToEnd(startedAt, stageStart, end time.Time) time.Duration {
	if startedAt.IsZero() || startedAt.After(stageStart) {
		return end.Sub(stageStart)
	}
	return end.Sub(startedAt)
}

func (g *RoutingGateway) reject(clickID string, err error) error {
	v, ok := domain.AsViolation(err)
	if !ok {
		g.logger.Error("routing failed",
			zap.String("click_id", clickID),
			zap.String("reason", reasonInternal),
			zap.Error(err),
		)
		g.events.advance(clickID, domain.StateRouting, domain.StateRoutingFailed, map[string]string{"reason": reasonInternal})
		return err
	}
	g.recorder.RecordViolation(v, true)
	g.logger.Warn("routing rejected",
		zap.String("click_id", clickID),
		zap.String("violation", string(v)),
		zap.Error(err),
	)
	g.events.advance(clickID, domain.StateRouting, domain.StateRoutingFailed, map[string]string{"violation": string(v)})
	return err
}
