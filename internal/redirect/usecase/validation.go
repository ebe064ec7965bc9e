package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/token"

	"go.uber.org/zap"
)

// FullSecurityScore is assigned to every click that passes validation.
const FullSecurityScore = 100

// ValidationConfig configures Stage 2.
type ValidationConfig struct {
	BaseURL       string
	GenesisSecret []byte
	TransitSecret []byte
	TransitTTL    time.Duration
	// LenientMode tolerates IP and user-agent drift between hops (NAT, proxies, mobile
	// networks). Mismatches are still logged and counted.
	LenientMode bool
	Fingerprint Fingerprinter
	Budget      time.Duration
}

// ValidationInput is the Genesis token plus the client context seen at Stage 2.
type ValidationInput struct {
	Token     string
	ClientIP  string
	UserAgent string
}

// ValidationResult points the client at the routing gateway.
type ValidationResult struct {
	RedirectURL string
	ClickID     string
	// Warnings lists context mismatches tolerated under lenient mode.
	Warnings       []domain.Violation
	ProcessingTime time.Duration
}

// ValidationHub is Stage 2: it verifies the Genesis token and client context and issues the
// Transit token.
type ValidationHub struct {
	codec    *token.Codec
	nonces   NonceStore
	cfg      ValidationConfig
	events   eventSink
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewValidationHub creates Stage 2. ledger and recorder may be nil.
func NewValidationHub(codec *token.Codec, nonces NonceStore, cfg ValidationConfig, ledger ClickLedger, recorder Recorder, logger *zap.Logger) *ValidationHub {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &ValidationHub{
		codec:    codec,
		nonces:   nonces,
		cfg:      cfg,
		events:   eventSink{ledger: ledger, logger: logger},
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Validate runs the Stage 2 checks in order: token, nonce, client context. Protocol failures
// wrap a domain.Violation; any other error is an internal fault.
func (h *ValidationHub) Validate(ctx context.Context, in ValidationInput) (*ValidationResult, error) {
	start := h.now()

	claims, err := h.codec.Decode(in.Token, h.cfg.GenesisSecret, domain.AudienceValidationHub)
	if err != nil {
		return nil, h.reject("", err)
	}
	genesis := claims.Genesis()

	used, err := h.nonces.Reserve(ctx, claims.ID)
	if err != nil {
		return nil, h.reject(genesis.ClickID, fmt.Errorf("%w: %w", domain.ErrUpstreamStoreUnavailable, err))
	}
	if used {
		return nil, h.reject(genesis.ClickID, domain.ErrReplayAttack)
	}

	warnings := h.contextMismatches(genesis, in)
	if len(warnings) > 0 {
		if !h.cfg.LenientMode {
			// IP drift is reported ahead of user-agent drift.
			return nil, h.reject(genesis.ClickID, warnings[0])
		}
		for _, v := range warnings {
			h.recorder.RecordViolation(v, false)
		}
		h.logger.Warn("client context changed between hops, tolerated in lenient mode",
			zap.String("click_id", genesis.ClickID),
			zap.Strings("violations", violationNames(warnings)),
		)
	}

	transit := token.TransitClaims(domain.TransitClaims{
		ClickID:        genesis.ClickID,
		LinkID:         genesis.LinkID,
		OriginalParams: genesis.OriginalParams,
		ValidatedAt:    h.now(),
		SecurityScore:  FullSecurityScore,
		StartedAt:      genesis.StartedAt,
	})
	raw, _, err := h.codec.Encode(transit, h.cfg.TransitSecret, h.cfg.TransitTTL)
	if err != nil {
		h.logger.Error("failed to encode transit token",
			zap.String("click_id", genesis.ClickID),
			zap.Error(err),
		)
		h.events.advance(genesis.ClickID, domain.StateValidating, domain.StateValidationFailed, map[string]string{"reason": "encode"})
		return nil, fmt.Errorf("encode transit token: %w", err)
	}

	elapsed := h.now().Sub(start)
	h.recorder.RecordStage(domain.StateValidating, elapsed)
	checkBudget(h.logger, domain.StateValidating, genesis.ClickID, elapsed, h.cfg.Budget)

	h.events.advance(genesis.ClickID, domain.StateValidating, domain.StateTransit, map[string]string{
		"link_id":        strconv.FormatInt(genesis.LinkID, 10),
		"security_score": strconv.Itoa(FullSecurityScore),
		"warnings":       strings.Join(violationNames(warnings), ","),
	})

	return &ValidationResult{
		RedirectURL:    h.cfg.BaseURL + "/route?token=" + url.QueryEscape(raw),
		ClickID:        genesis.ClickID,
		Warnings:       warnings,
		ProcessingTime: elapsed,
	}, nil
}

func (h *ValidationHub) contextMismatches(genesis domain.GenesisClaims, in ValidationInput) []domain.Violation {
	var out []domain.Violation
	if !sameDigest(genesis.IPHash, h.cfg.Fingerprint.HashIP(in.ClientIP)) {
		out = append(out, domain.ErrContextMismatchIP)
	}
	if !sameDigest(genesis.UAHash, h.cfg.Fingerprint.HashUA(in.UserAgent)) {
		out = append(out, domain.ErrContextMismatchUA)
	}
	return out
}

// reject records an enforced violation and returns err for the caller. Errors that carry no
// violation are internal faults: they are logged as such and never counted as an attack.
func (h *ValidationHub) reject(clickID string, err error) error {
	v, ok := domain.AsViolation(err)
	if !ok {
		h.logger.Error("validation failed",
			zap.String("click_id", clickID),
			zap.String("reason", reasonInternal),
			zap.Error(err),
		)
		h.events.advance(clickID, domain.StateValidating, domain.StateValidationFailed, map[string]string{"reason": reasonInternal})
		return err
	}
	h.recorder.RecordViolation(v, true)
	h.logger.Warn("validation rejected",
		zap.String("click_id", clickID),
		zap.String("violation", string(v)),
		zap.Error(err),
	)
	h.events.advance(clickID, domain.StateValidating, domain.StateValidationFailed, map[string]string{"violation": string(v)})
	return err
}

func violationNames(vs []domain.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
