package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

// EntryRepository reads journal entries for feed rendering. Entries are
// written by the journaling service; this side only filters them.
type EntryRepository interface {
	ListRecent(ctx context.Context, limit int) ([]models.Entry, error)
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Entry, error)
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
}

type entryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) ListRecent(ctx context.Context, limit int) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.SelectContext(ctx, &entries, `
SELECT id, owner_id, wine_name, vintage, rating, notes, privacy, created_at
FROM entries
ORDER BY created_at DESC, id DESC
LIMIT $1
`, limit)
	return entries, err
}

func (r *entryRepository) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.SelectContext(ctx, &entries, `
SELECT id, owner_id, wine_name, vintage, rating, notes, privacy, created_at
FROM entries
WHERE owner_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, ownerID, limit)
	return entries, err
}

func (r *entryRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.GetContext(ctx, &entry, `
SELECT id, owner_id, wine_name, vintage, rating, notes, privacy, created_at
FROM entries
WHERE id=$1
`, id)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
