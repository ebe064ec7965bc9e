package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenesisConfig configures Stage 1.
type GenesisConfig struct {
	BaseURL     string
	Secret      []byte
	TTL         time.Duration
	Fingerprint Fingerprinter
	Budget      time.Duration
}

// GenesisInput is one public short-link click.
type GenesisInput struct {
	LinkID         int64
	ClientIP       string
	UserAgent      string
	Referrer       string
	OriginalParams domain.Params
}

// GenesisResult points the client at the validation hub.
type GenesisResult struct {
	RedirectURL    string
	ClickID        string
	ProcessingTime time.Duration
}

func (r *GenesisResult) ProcessingTimeMs() int64 {
	return r.ProcessingTime.Milliseconds()
}

// GenesisIssuer is Stage 1: it binds a click to its client context and original parameters
// and issues the Genesis token.
type GenesisIssuer struct {
	codec    *token.Codec
	cfg      GenesisConfig
	events   eventSink
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewGenesisIssuer creates Stage 1. ledger and recorder may be nil.
func NewGenesisIssuer(codec *token.Codec, cfg GenesisConfig, ledger ClickLedger, recorder Recorder, logger *zap.Logger) *GenesisIssuer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &GenesisIssuer{
		codec:    codec,
		cfg:      cfg,
		events:   eventSink{ledger: ledger, logger: logger},
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue mints a Genesis token for the click. Every failure is reported as
// domain.ErrGenesisFailed; the cause is only logged.
func (g *GenesisIssuer) Issue(ctx context.Context, in GenesisInput) (*GenesisResult, error) {
	start := g.now()
	g.recorder.RecordRedirectStarted()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenesisFailed, err)
	}

	clickID := uuid.NewString()
	claims := token.GenesisClaims(domain.GenesisClaims{
		ClickID:        clickID,
		LinkID:         in.LinkID,
		IPHash:         g.cfg.Fingerprint.HashIP(in.ClientIP),
		UAHash:         g.cfg.Fingerprint.HashUA(in.UserAgent),
		Referrer:       in.Referrer,
		OriginalParams: in.OriginalParams,
		StartedAt:      start,
	})

	raw, meta, err := g.codec.Encode(claims, g.cfg.Secret, g.cfg.TTL)
	if err != nil {
		g.logger.Error("failed to encode genesis token",
			zap.Int64("link_id", in.LinkID),
			zap.Error(err),
		)
		g.events.advance(clickID, domain.StateGenesis, domain.StateGenesisFailed, map[string]string{
			"link_id": strconv.FormatInt(in.LinkID, 10),
		})
		return nil, fmt.Errorf("%w: %w", domain.ErrGenesisFailed, err)
	}

	elapsed := g.now().Sub(start)
	g.recorder.RecordStage(domain.StateGenesis, elapsed)
	checkBudget(g.logger, domain.StateGenesis, clickID, elapsed, g.cfg.Budget)

	g.events.begin(clickID, map[string]string{
		"link_id":    strconv.FormatInt(in.LinkID, 10),
		"referrer":   in.Referrer,
		"param_keys": strconv.Itoa(in.OriginalParams.Len()),
		"expires_at": meta.ExpiresAt.UTC().Format(time.RFC3339),
	})

	return &GenesisResult{
		RedirectURL:    g.cfg.BaseURL + "/validate?token=" + url.QueryEscape(raw),
		ClickID:        clickID,
		ProcessingTime: elapsed,
	}, nil
}
