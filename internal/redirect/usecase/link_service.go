package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"quantum-redirect/internal/redirect/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	// NanoID alphabet: alphanumeric (a-z, A-Z, 0-9) - 62 characters, case-sensitive
	nanoIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	nanoIDLength   = 8
	maxRetries     = 5
	maxURLLength   = 2048
)

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// reservedCodes collide with the service's own routes.
var reservedCodes = map[string]struct{}{
	"validate": {},
	"route":    {},
	"healthz":  {},
	"readyz":   {},
	"metrics":  {},
	"api":      {},
}

// LinkService administers short links and resolves them for the public entry point.
type LinkService struct {
	repo   LinkRepository
	logger *zap.Logger
}

// NewLinkService creates a new link service
func NewLinkService(repo LinkRepository, logger *zap.Logger) *LinkService {
	return &LinkService{
		repo:   repo,
		logger: logger,
	}
}

// CreateLink validates the destination and stores it under shortCode, or under a generated
// code when shortCode is empty.
func (s *LinkService) CreateLink(ctx context.Context, destinationURL, shortCode string) (*domain.ShortLink, error) {
	if err := validateURL(destinationURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	if shortCode != "" {
		if err := validateShortCode(shortCode); err != nil {
			return nil, err
		}
		return s.repo.Save(ctx, shortCode, destinationURL)
	}

	// Generate short code with collision retry
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		code, err := gonanoid.Generate(nanoIDAlphabet, nanoIDLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}
		if _, reserved := reservedCodes[code]; reserved {
			continue
		}

		link, err := s.repo.Save(ctx, code, destinationURL)
		if err != nil {
			if errors.Is(err, domain.ErrShortCodeTaken) {
				s.logger.Debug("short code collision, retrying", zap.String("short_code", code), zap.Int("attempt", attempt+1))
				continue
			}
			return nil, err
		}

		return link, nil
	}

	return nil, domain.ErrShortCodeConflict
}

// Resolve returns the link for a short code, active or not.
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (*domain.ShortLink, error) {
	return s.repo.FindByShortCode(ctx, shortCode)
}

// Disable stops a link from being routed. Tokens already in flight fail at Stage 3.
func (s *LinkService) Disable(ctx context.Context, shortCode string) error {
	return s.repo.SetStatus(ctx, shortCode, domain.LinkStatusInactive)
}

func (s *LinkService) Enable(ctx context.Context, shortCode string) error {
	return s.repo.SetStatus(ctx, shortCode, domain.LinkStatusActive)
}

func (s *LinkService) List(ctx context.Context) ([]domain.ShortLink, error) {
	return s.repo.List(ctx)
}

func validateShortCode(code string) error {
	if !shortCodePattern.MatchString(code) {
		return fmt.Errorf("%w: %q must be 3-32 letters, digits, '-' or '_'", domain.ErrInvalidShortCode, code)
	}
	if _, reserved := reservedCodes[strings.ToLower(code)]; reserved {
		return fmt.Errorf("%w: %q is reserved", domain.ErrInvalidShortCode, code)
	}
	return nil
}

// validateURL validates the URL format and constraints
func validateURL(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("url exceeds maximum length of %d characters", maxURLLength)
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url format: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("url must have a host")
	}

	// The query is re-read at routing time, so it must decode cleanly now.
	if _, err := url.ParseQuery(parsedURL.RawQuery); err != nil {
		return fmt.Errorf("invalid url query: %w", err)
	}

	return nil
}
