package passage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
)

// Default catalog locations, tried in order when no path is configured.
var DefaultCatalogPaths = []string{
	"data/gita_verses_full.json",
	"data/gita_verses_sample.json",
}

var (
	ErrCatalogNotFound = errors.New("passage: no verse catalog found")
	ErrInvalidCatalog  = errors.New("passage: invalid verse catalog")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// flexInt accepts both JSON numbers and numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", string(data))
	}
	*f = flexInt(n)
	return nil
}

type catalogRow struct {
	ID              flexInt  `json:"id"`
	Chapter         flexInt  `json:"chapter"`
	VerseNumber     flexInt  `json:"verse_number"`
	Verse           flexInt  `json:"verse"`
	Ref             string   `json:"ref"`
	ChapterName     string   `json:"chapter_name"`
	Sanskrit        string   `json:"sanskrit"`
	Transliteration string   `json:"transliteration"`
	Translation     string   `json:"translation"`
	TranslationHi   string   `json:"translation_hi"`
	Tags            []string `json:"tags"`
}

func (r *catalogRow) toPassage(index int) (Passage, error) {
	verse := int(r.VerseNumber)
	if verse == 0 {
		verse = int(r.Verse)
	}
	if r.Chapter <= 0 || verse <= 0 {
		return Passage{}, fmt.Errorf("%w: row %d is missing chapter or verse", ErrInvalidCatalog, index)
	}
	id := int(r.ID)
	if id <= 0 {
		id = index + 1
	}
	ref := strings.TrimSpace(r.Ref)
	if ref == "" {
		ref = FormatRef(int(r.Chapter), verse)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return Passage{
		ID:              id,
		Chapter:         int(r.Chapter),
		Verse:           verse,
		Ref:             ref,
		ChapterName:     r.ChapterName,
		Sanskrit:        r.Sanskrit,
		Transliteration: r.Transliteration,
		Translation:     r.Translation,
		TranslationHi:   r.TranslationHi,
		Tags:            tags,
	}, nil
}

// ParseCatalog decodes a JSON array of verse rows. Rows without an id are
// numbered by position starting at 1.
func ParseCatalog(data []byte) ([]Passage, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var rows []catalogRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	out := make([]Passage, 0, len(rows))
	seen := make(map[int]struct{}, len(rows))
	for i := range rows {
		p, err := rows[i].toPassage(i)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// LoadCatalog reads and parses the catalog at path.
func LoadCatalog(fs afero.Fs, path string) ([]Passage, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("passage: read catalog %s: %w", path, err)
	}
	passages, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("passage: parse catalog %s: %w", path, err)
	}
	return passages, nil
}

// ResolveCatalogPath returns explicit when set, otherwise the first default
// location that exists.
func ResolveCatalogPath(fs afero.Fs, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if ok, _ := afero.Exists(fs, explicit); !ok {
			return "", fmt.Errorf("%w: %s", ErrCatalogNotFound, explicit)
		}
		return explicit, nil
	}
	for _, candidate := range DefaultCatalogPaths {
		if ok, _ := afero.Exists(fs, candidate); ok {
			return candidate, nil
		}
	}
	return "", ErrCatalogNotFound
}

// WatchCatalog reloads the catalog whenever the file changes and hands the
// parsed passages to onChange. Parse failures are logged and skipped. The
// returned watcher must be closed by the caller.
func WatchCatalog(
	ctx context.Context,
	fs afero.Fs,
	path string,
	onChange func([]Passage),
) (*config.Watcher, error) {
	w, err := config.NewWatcher()
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("catalog", path)
	w.OnChange(func() {
		passages, err := LoadCatalog(fs, path)
		if err != nil {
			log.Warn("Catalog reload skipped", "error", err)
			return
		}
		log.Info("Catalog reloaded", "passages", len(passages))
		onChange(passages)
	})
	if err := w.Watch(ctx, path); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}
