package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"quantum-redirect/internal/redirect/database"
	"quantum-redirect/internal/redirect/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := database.OpenDB(filepath.Join(t.TempDir(), "quantum.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Run migrations
	err = database.RunMigrations(db)
	require.NoError(t, err)

	return db
}

func TestLinkRepository_Save_CreatesActiveRecord(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))

	link, err := repo.Save(context.Background(), "abc123", "https://example.com/x?ref=1")

	require.NoError(t, err)
	assert.NotZero(t, link.ID)
	assert.Equal(t, "abc123", link.ShortCode)
	assert.Equal(t, "https://example.com/x?ref=1", link.DestinationURL)
	assert.Equal(t, domain.LinkStatusActive, link.Status)
	assert.False(t, link.CreatedAt.IsZero())
}

func TestLinkRepository_Save_DuplicateCode(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, "abc123", "https://example.com/a")
	require.NoError(t, err)

	_, err = repo.Save(ctx, "abc123", "https://example.com/b")
	assert.ErrorIs(t, err, domain.ErrShortCodeTaken)
}

func TestLinkRepository_FindByShortCode(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))
	ctx := context.Background()

	saved, err := repo.Save(ctx, "abc123", "https://example.com")
	require.NoError(t, err)

	found, err := repo.FindByShortCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, saved.DestinationURL, found.DestinationURL)

	_, err = repo.FindByShortCode(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestLinkRepository_FindByShortCode_IsCaseSensitive(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, "AbC123", "https://example.com")
	require.NoError(t, err)

	_, err = repo.FindByShortCode(ctx, "abc123")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestLinkRepository_GetActiveLink(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))
	ctx := context.Background()

	saved, err := repo.Save(ctx, "abc123", "https://example.com")
	require.NoError(t, err)

	link, err := repo.GetActiveLink(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", link.ShortCode)

	require.NoError(t, repo.SetStatus(ctx, "abc123", domain.LinkStatusInactive))
	_, err = repo.GetActiveLink(ctx, saved.ID)
	assert.ErrorIs(t, err, domain.ErrLinkInactive)

	// FindByShortCode still sees disabled links.
	found, err := repo.FindByShortCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusInactive, found.Status)

	require.NoError(t, repo.SetStatus(ctx, "abc123", domain.LinkStatusActive))
	_, err = repo.GetActiveLink(ctx, saved.ID)
	assert.NoError(t, err)

	_, err = repo.GetActiveLink(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestLinkRepository_SetStatus_UnknownCode(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))

	err := repo.SetStatus(context.Background(), "missing", domain.LinkStatusInactive)
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestLinkRepository_SetStatus_RejectsUnknownStatus(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, "abc123", "https://example.com")
	require.NoError(t, err)

	err = repo.SetStatus(ctx, "abc123", domain.LinkStatus("archived"))
	assert.Error(t, err)
}

func TestLinkRepository_List(t *testing.T) {
	repo := NewLinkRepository(setupTestDB(t))
	ctx := context.Background()

	links, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)

	for _, code := range []string{"one", "two", "three"} {
		_, err := repo.Save(ctx, code, "https://example.com/"+code)
		require.NoError(t, err)
	}

	links, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "one", links[0].ShortCode)
	assert.Equal(t, "three", links[2].ShortCode)
}
