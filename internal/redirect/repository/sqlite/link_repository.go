package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/repository/sqlite/sqlc"
	"quantum-redirect/internal/redirect/usecase"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// LinkRepository implements the usecase.LinkRepository interface using sqlc
type LinkRepository struct {
	queries *sqlc.Queries
}

// NewLinkRepository creates a new SQLite-backed link repository
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{
		queries: sqlc.New(db),
	}
}

// Ensure LinkRepository implements usecase.LinkRepository at compile time
var _ usecase.LinkRepository = (*LinkRepository)(nil)

// Save creates a new active link
func (r *LinkRepository) Save(ctx context.Context, shortCode, destinationURL string) (*domain.ShortLink, error) {
	id, err := r.queries.CreateLink(ctx, sqlc.CreateLinkParams{
		ShortCode:      shortCode,
		DestinationUrl: destinationURL,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrShortCodeTaken, shortCode)
		}
		return nil, err
	}

	link, err := r.queries.GetLinkByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomain(link), nil
}

// FindByShortCode retrieves a link by its short code regardless of status
func (r *LinkRepository) FindByShortCode(ctx context.Context, code string) (*domain.ShortLink, error) {
	link, err := r.queries.FindLinkByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}
	return toDomain(link), nil
}

// GetActiveLink retrieves a link that may be routed to
func (r *LinkRepository) GetActiveLink(ctx context.Context, linkID int64) (*domain.ShortLink, error) {
	link, err := r.queries.GetLinkByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}

	out := toDomain(link)
	if !out.IsActive() {
		return nil, domain.ErrLinkInactive
	}
	return out, nil
}

func (r *LinkRepository) SetStatus(ctx context.Context, shortCode string, status domain.LinkStatus) error {
	n, err := r.queries.UpdateLinkStatus(ctx, sqlc.UpdateLinkStatusParams{
		Status:    string(status),
		ShortCode: shortCode,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func (r *LinkRepository) List(ctx context.Context) ([]domain.ShortLink, error) {
	rows, err := r.queries.ListLinks(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]domain.ShortLink, len(rows))
	for i, row := range rows {
		links[i] = *toDomain(row)
	}
	return links, nil
}

func toDomain(l sqlc.Link) *domain.ShortLink {
	return &domain.ShortLink{
		ID:             l.ID,
		ShortCode:      l.ShortCode,
		DestinationURL: l.DestinationUrl,
		Status:         domain.LinkStatus(l.Status),
		CreatedAt:      l.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
