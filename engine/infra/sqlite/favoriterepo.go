package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gitacompanion/companion/engine/guidance"
)

// Fixed width so created_at sorts as text.
const favoriteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FavoriteRepo stores saved verses and is a guidance.FavoriteStore.
type FavoriteRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ guidance.FavoriteStore = (*FavoriteRepo)(nil)

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db, now: time.Now} }

func (r *FavoriteRepo) ListFavorites(ctx context.Context) ([]guidance.Favorite, error) {
	const q = `SELECT id, verse_id, created_at FROM favorites ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list favorites: %w", err)
	}
	defer rows.Close()
	out := make([]guidance.Favorite, 0)
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate favorites: %w", err)
	}
	return out, nil
}

// AddFavorite inserts verseID unless it is already saved and returns the
// stored row either way.
func (r *FavoriteRepo) AddFavorite(ctx context.Context, verseID int) (*guidance.Favorite, error) {
	const insert = `INSERT INTO favorites (verse_id, created_at) VALUES (?, ?)
        ON CONFLICT (verse_id) DO NOTHING`
	created := r.now().UTC().Format(favoriteTimeLayout)
	if _, err := r.db.ExecContext(ctx, insert, verseID, created); err != nil {
		return nil, fmt.Errorf("sqlite: insert favorite: %w", err)
	}
	const q = `SELECT id, verse_id, created_at FROM favorites WHERE verse_id = ?`
	return scanFavorite(r.db.QueryRowContext(ctx, q, verseID))
}

func (r *FavoriteRepo) RemoveFavorite(ctx context.Context, verseID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE verse_id = ?`, verseID); err != nil {
		return fmt.Errorf("sqlite: delete favorite: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row rowScanner) (*guidance.Favorite, error) {
	var (
		f       guidance.Favorite
		created string
	)
	if err := row.Scan(&f.ID, &f.VerseID, &created); err != nil {
		return nil, fmt.Errorf("sqlite: scan favorite: %w", err)
	}
	ts, err := time.Parse(favoriteTimeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse favorite time: %w", err)
	}
	f.CreatedAt = ts
	return &f, nil
}
