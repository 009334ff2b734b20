package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/passage"
)

func retrievedSet() []passage.Passage {
	return []passage.Passage{
		{
			ID: 1, Chapter: 2, Verse: 47, Ref: "2.47",
			Sanskrit:    "karmany evadhikaras te ma phaleshu kadachana",
			Translation: "You have a right to perform your prescribed duties, but never to the fruits of action.",
		},
		{
			ID: 2, Chapter: 6, Verse: 35, Ref: "6.35",
			Translation: "The restless mind is controlled by constant practice and detachment.",
		},
	}
}

func TestVerify(t *testing.T) {
	t.Run("Should verify an answer that names its cited verse", func(t *testing.T) {
		got := Verify(
			"Begin with verse 2.47 and act.",
			[]llmadapter.Citation{{VerseID: 1, Ref: "2.47"}},
			retrievedSet()[:1],
		)
		assert.Equal(t, LevelVerified, got.Level)
		require.Len(t, got.Checks, 3)
		assert.Equal(t, "1 cited verse id(s) map to retrieved context.", got.Checks[0].Note)
		assert.Equal(t, "Answer references retrieved verse refs/tokens.", got.Checks[1].Note)
		assert.Equal(t, "1 provenance verse(s) attached.", got.Checks[2].Note)
		assert.Equal(t, []Provenance{{
			VerseID: 1, Chapter: 2, Verse: 47,
			Sanskrit:          "karmany evadhikaras te ma phaleshu kadachana",
			TranslationSource: "Local Bhagavad Gita dataset",
		}}, got.Provenance)
	})

	t.Run("Should mark unknown citations raw", func(t *testing.T) {
		got := Verify("Some answer", []llmadapter.Citation{{VerseID: 999, Ref: "99.1"}}, retrievedSet()[:1])
		assert.Equal(t, LevelRaw, got.Level)
		assert.False(t, got.Passed(CheckCitationIntegrity))
		assert.Equal(t, "Cited verse ids are missing or do not map to retrieved context.", got.Checks[0].Note)
		// provenance falls back to the top retrieved passage
		require.Len(t, got.Provenance, 1)
		assert.Equal(t, 1, got.Provenance[0].VerseID)
		assert.True(t, got.Passed(CheckProvenanceAttached))
	})

	t.Run("Should review when citations hold but grounding is weak", func(t *testing.T) {
		got := Verify("Be kind today.", []llmadapter.Citation{{VerseID: 2, Ref: "6.35"}}, retrievedSet())
		assert.Equal(t, LevelReviewed, got.Level)
		assert.False(t, got.Passed(CheckAnswerGrounding))
		assert.Equal(t, "Answer grounding signals are weak; review is recommended.", got.Checks[1].Note)
	})

	t.Run("Should ground on two shared long tokens", func(t *testing.T) {
		got := Verify(
			"A RESTLESS heart finds calm through PRACTICE.",
			[]llmadapter.Citation{{VerseID: 2}},
			retrievedSet(),
		)
		assert.True(t, got.Passed(CheckAnswerGrounding))
		assert.Equal(t, LevelVerified, got.Level)
	})

	t.Run("Should not ground on a single shared token", func(t *testing.T) {
		got := Verify("Practice daily.", []llmadapter.Citation{{VerseID: 2}}, retrievedSet())
		assert.False(t, got.Passed(CheckAnswerGrounding))
	})

	t.Run("Should ignore short tokens", func(t *testing.T) {
		got := Verify("mind and duty", []llmadapter.Citation{{VerseID: 2}}, retrievedSet())
		assert.False(t, got.Passed(CheckAnswerGrounding))
	})

	t.Run("Should treat missing citation ids as failing citation", func(t *testing.T) {
		got := Verify("verse 2.47", []llmadapter.Citation{{Ref: "2.47"}}, retrievedSet())
		assert.False(t, got.Passed(CheckCitationIntegrity))
		assert.True(t, got.Passed(CheckAnswerGrounding))
		assert.Equal(t, LevelRaw, got.Level)
	})

	t.Run("Should fail citation when one of several refs did not resolve", func(t *testing.T) {
		got := Verify(
			"See 2.47 here",
			[]llmadapter.Citation{{VerseID: 1, Ref: "2.47"}, {VerseID: 0, Ref: "99.99"}},
			retrievedSet()[:1],
		)
		assert.False(t, got.Passed(CheckCitationIntegrity))
		assert.True(t, got.Passed(CheckAnswerGrounding))
		assert.Equal(t, LevelRaw, got.Level)
		require.Len(t, got.Provenance, 1)
		assert.Equal(t, 1, got.Provenance[0].VerseID)
	})

	t.Run("Should de-duplicate provenance in citation order", func(t *testing.T) {
		got := Verify("x", []llmadapter.Citation{{VerseID: 2}, {VerseID: 1}, {VerseID: 2}}, retrievedSet())
		ids := make([]int, 0, len(got.Provenance))
		for _, p := range got.Provenance {
			ids = append(ids, p.VerseID)
		}
		assert.Equal(t, []int{2, 1}, ids)
		assert.Equal(t, "3 cited verse id(s) map to retrieved context.", got.Checks[0].Note)
	})

	t.Run("Should attach nothing when retrieval was empty", func(t *testing.T) {
		got := Verify("answer", nil, nil)
		assert.Equal(t, LevelRaw, got.Level)
		assert.Empty(t, got.Provenance)
		assert.Equal(t, "No provenance verse metadata attached.", got.Checks[2].Note)
	})
}
