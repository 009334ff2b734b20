package guidance

import "errors"

var (
	// ErrInvalidQuery rejects blank or out-of-range requests before retrieval.
	ErrInvalidQuery = errors.New("guidance: invalid query")

	// ErrNoGrounding means neither retrieval path found a passage.
	ErrNoGrounding = errors.New("guidance: no verses found")

	ErrVerseNotFound = errors.New("guidance: verse not found")

	// ErrEmptyCatalog is returned by DailyVerse before any passage is loaded.
	ErrEmptyCatalog = errors.New("guidance: no verses seeded yet")

	ErrFavoritesUnavailable = errors.New("guidance: favorites store is not configured")
)
