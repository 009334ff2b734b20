package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	t.Run("Should lower-case and keep apostrophes", func(t *testing.T) {
		assert.Equal(t, []string{"krishna's", "duty", "2", "47"}, Tokenize("Krishna's DUTY, 2.47!"))
	})
	t.Run("Should return nothing for punctuation only", func(t *testing.T) {
		assert.Empty(t, Tokenize("  ?! -- "))
	})
}

func TestKeywordScore(t *testing.T) {
	t.Run("Should divide overlap by distinct query tokens", func(t *testing.T) {
		score := KeywordScore("duty duty fear peace", []string{"Your own duty", "free of fear"})
		assert.InDelta(t, 2.0/3.0, score, 1e-9)
	})
	t.Run("Should score zero without overlap", func(t *testing.T) {
		assert.Zero(t, KeywordScore("python compiler", []string{"dharma"}))
	})
	t.Run("Should score zero for an empty query", func(t *testing.T) {
		assert.Zero(t, KeywordScore("", []string{"dharma"}))
	})
}
