package guidance

import (
	"context"
	"fmt"
	"time"

	"github.com/gitacompanion/companion/engine/passage"
)

// Favorite is a saved verse. A verse is saved at most once.
type Favorite struct {
	ID        int64     `json:"id"`
	VerseID   int       `json:"verse_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteStore persists favorites. List returns the newest first and Add
// returns the existing row when the verse is already saved.
type FavoriteStore interface {
	ListFavorites(ctx context.Context) ([]Favorite, error)
	AddFavorite(ctx context.Context, verseID int) (*Favorite, error)
	RemoveFavorite(ctx context.Context, verseID int) error
}

type FavoriteVerse struct {
	ID        int64           `json:"id"`
	Verse     passage.Passage `json:"verse"`
	CreatedAt time.Time       `json:"created_at"`
}

// Favorites lists saved verses, newest first. Favorites whose verse left the
// catalog are skipped.
func (s *Service) Favorites(ctx context.Context) ([]FavoriteVerse, error) {
	if s.favorites == nil {
		return nil, ErrFavoritesUnavailable
	}
	saved, err := s.favorites.ListFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("guidance: list favorites: %w", err)
	}
	out := make([]FavoriteVerse, 0, len(saved))
	if len(saved) == 0 {
		return out, nil
	}
	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("guidance: list favorites: %w", err)
	}
	byID := make(map[int]passage.Passage, len(all))
	for i := range all {
		byID[all[i].ID] = all[i]
	}
	for _, f := range saved {
		verse, ok := byID[f.VerseID]
		if !ok {
			continue
		}
		out = append(out, FavoriteVerse{ID: f.ID, Verse: verse, CreatedAt: f.CreatedAt})
	}
	return out, nil
}

// AddFavorite saves a stored verse. Saving it again returns the first row.
func (s *Service) AddFavorite(ctx context.Context, verseID int) (*FavoriteVerse, error) {
	if s.favorites == nil {
		return nil, ErrFavoritesUnavailable
	}
	if verseID <= 0 {
		return nil, fmt.Errorf("%w: verse_id must be positive", ErrInvalidQuery)
	}
	verse, err := s.Verse(ctx, verseID)
	if err != nil {
		return nil, err
	}
	f, err := s.favorites.AddFavorite(ctx, verseID)
	if err != nil {
		return nil, fmt.Errorf("guidance: add favorite: %w", err)
	}
	return &FavoriteVerse{ID: f.ID, Verse: *verse, CreatedAt: f.CreatedAt}, nil
}

// RemoveFavorite deletes the favorite for verseID. Removing a verse that is
// not saved is not an error.
func (s *Service) RemoveFavorite(ctx context.Context, verseID int) error {
	if s.favorites == nil {
		return ErrFavoritesUnavailable
	}
	if err := s.favorites.RemoveFavorite(ctx, verseID); err != nil {
		return fmt.Errorf("guidance: remove favorite: %w", err)
	}
	return nil
}
