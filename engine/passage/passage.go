// Package passage defines the verse record that every retrieval, generation
// and verification step refers to.
package passage

import (
	"fmt"
	"slices"
	"strings"
)

// Passage is one verse of the corpus. Values are treated as immutable once
// loaded; use Clone before mutating a copy.
type Passage struct {
	ID              int       `json:"id"`
	Chapter         int       `json:"chapter"`
	Verse           int       `json:"verse_number"`
	Ref             string    `json:"ref"`
	ChapterName     string    `json:"chapter_name,omitempty"`
	Sanskrit        string    `json:"sanskrit"`
	Transliteration string    `json:"transliteration"`
	Translation     string    `json:"translation"`
	TranslationHi   string    `json:"translation_hi,omitempty"`
	Tags            []string  `json:"tags"`
	Embedding       []float32 `json:"-"`
}

// FormatRef renders the canonical "chapter.verse" reference.
func FormatRef(chapter, verse int) string {
	return fmt.Sprintf("%d.%d", chapter, verse)
}

func (p *Passage) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// EmbeddingText is the text embedded for vector search: ref, transliteration,
// translation and tags separated by spaces.
func (p *Passage) EmbeddingText() string {
	parts := []string{p.Ref, p.Transliteration, p.Translation, strings.Join(p.Tags, " ")}
	return strings.Join(parts, " ")
}

// LexicalFields are the fields scanned by keyword fallback search.
func (p *Passage) LexicalFields() []string {
	fields := make([]string, 0, 2+len(p.Tags))
	fields = append(fields, p.Translation, p.Transliteration)
	return append(fields, p.Tags...)
}

func (p Passage) Clone() Passage {
	out := p
	out.Tags = slices.Clone(p.Tags)
	out.Embedding = slices.Clone(p.Embedding)
	return out
}

// IDs returns the ids of passages in order.
func IDs(passages []Passage) []int {
	ids := make([]int, len(passages))
	for i := range passages {
		ids[i] = passages[i].ID
	}
	return ids
}

// SortCanonical orders passages by chapter then verse.
func SortCanonical(passages []Passage) {
	slices.SortStableFunc(passages, func(a, b Passage) int {
		if a.Chapter != b.Chapter {
			return a.Chapter - b.Chapter
		}
		return a.Verse - b.Verse
	})
}
