// Package verification certifies whether a generated answer is supported by
// the passages it was grounded on.
package verification

import (
	"fmt"
	"regexp"
	"strings"

	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/passage"
)

// Level is the outcome of the three gates.
type Level string

const (
	LevelVerified Level = "VERIFIED"
	LevelReviewed Level = "REVIEWED"
	LevelRaw      Level = "RAW"
)

// Check names in evaluation order.
const (
	CheckCitationIntegrity  = "citation_integrity"
	CheckAnswerGrounding    = "answer_grounding"
	CheckProvenanceAttached = "provenance_attached"
)

const (
	TranslationSource = "Local Bhagavad Gita dataset"
	minGroundingToken = 5
	minSharedTokens   = 2
)

var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z']+`)

type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Note   string `json:"note"`
}

// Provenance ties an answer to a stored verse.
type Provenance struct {
	VerseID           int    `json:"verse_id"`
	Chapter           int    `json:"chapter"`
	Verse             int    `json:"verse"`
	Sanskrit          string `json:"sanskrit"`
	TranslationSource string `json:"translation_source"`
}

type Result struct {
	Level      Level        `json:"level"`
	Checks     []Check      `json:"checks"`
	Provenance []Provenance `json:"provenance"`
}

// Passed reports the outcome of a named check.
func (r *Result) Passed(name string) bool {
	for _, c := range r.Checks {
		if c.Name == name {
			return c.Passed
		}
	}
	return false
}

// Verify runs citation integrity, answer grounding and provenance against
// the retrieved set. It is pure.
func Verify(answer string, cited []llmadapter.Citation, retrieved []passage.Passage) Result {
	byID := make(map[int]*passage.Passage, len(retrieved))
	for i := range retrieved {
		byID[retrieved[i].ID] = &retrieved[i]
	}

	// Id 0 marks a ref the parser could not resolve; it never passes.
	citedIDs := make([]int, 0, len(cited))
	for i := range cited {
		citedIDs = append(citedIDs, cited[i].VerseID)
	}
	citationPassed := len(citedIDs) > 0
	for _, id := range citedIDs {
		if _, ok := byID[id]; !ok || id == 0 {
			citationPassed = false
			break
		}
	}
	citationNote := "Cited verse ids are missing or do not map to retrieved context."
	if citationPassed {
		citationNote = fmt.Sprintf("%d cited verse id(s) map to retrieved context.", len(citedIDs))
	}

	groundingPassed := isGrounded(answer, cited, retrieved)
	groundingNote := "Answer grounding signals are weak; review is recommended."
	if groundingPassed {
		groundingNote = "Answer references retrieved verse refs/tokens."
	}

	provenance := buildProvenance(citedIDs, byID, retrieved)
	provenancePassed := len(provenance) > 0
	provenanceNote := "No provenance verse metadata attached."
	if provenancePassed {
		provenanceNote = fmt.Sprintf("%d provenance verse(s) attached.", len(provenance))
	}

	level := LevelRaw
	switch {
	case citationPassed && groundingPassed && provenancePassed:
		level = LevelVerified
	case citationPassed:
		level = LevelReviewed
	}
	return Result{
		Level: level,
		Checks: []Check{
			{Name: CheckCitationIntegrity, Passed: citationPassed, Note: citationNote},
			{Name: CheckAnswerGrounding, Passed: groundingPassed, Note: groundingNote},
			{Name: CheckProvenanceAttached, Passed: provenancePassed, Note: provenanceNote},
		},
		Provenance: provenance,
	}
}

func isGrounded(answer string, cited []llmadapter.Citation, retrieved []passage.Passage) bool {
	lowered := strings.ToLower(answer)
	for i := range cited {
		ref := strings.ToLower(strings.TrimSpace(cited[i].Ref))
		if ref != "" && strings.Contains(lowered, ref) {
			return true
		}
	}
	answerTokens := groundingTokens(answer)
	if len(answerTokens) == 0 {
		return false
	}
	verseTokens := make(map[string]struct{})
	for i := range retrieved {
		for tok := range groundingTokens(retrieved[i].Translation) {
			verseTokens[tok] = struct{}{}
		}
		for tok := range groundingTokens(retrieved[i].Sanskrit) {
			verseTokens[tok] = struct{}{}
		}
	}
	shared := 0
	for tok := range answerTokens {
		if _, ok := verseTokens[tok]; ok {
			shared++
			if shared >= minSharedTokens {
				return true
			}
		}
	}
	return false
}

func groundingTokens(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range wordPattern.FindAllString(text, -1) {
		if len(tok) >= minGroundingToken {
			out[strings.ToLower(tok)] = struct{}{}
		}
	}
	return out
}

func buildProvenance(citedIDs []int, byID map[int]*passage.Passage, retrieved []passage.Passage) []Provenance {
	ordered := make([]int, 0, len(citedIDs))
	seen := make(map[int]struct{}, len(citedIDs))
	for _, id := range citedIDs {
		if _, ok := byID[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	if len(ordered) == 0 && len(retrieved) > 0 {
		ordered = append(ordered, retrieved[0].ID)
	}
	out := make([]Provenance, 0, len(ordered))
	for _, id := range ordered {
		p := byID[id]
		out = append(out, Provenance{
			VerseID:           p.ID,
			Chapter:           p.Chapter,
			Verse:             p.Verse,
			Sanskrit:          p.Sanskrit,
			TranslationSource: TranslationSource,
		})
	}
	return out
}
