package core

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProblem(t *testing.T) {
	t.Run("Should default to internal server error", func(t *testing.T) {
		p := NormalizeProblem(nil)
		assert.Equal(t, http.StatusInternalServerError, p.Status)
		assert.Equal(t, "Internal Server Error", p.Title)
		assert.Equal(t, "about:blank", p.Type)
	})

	t.Run("Should keep explicit values", func(t *testing.T) {
		p := NormalizeProblem(&Problem{Status: http.StatusNotFound, Title: "Missing"})
		assert.Equal(t, "Missing", p.Title)
	})
}

func TestBuildProblemBody(t *testing.T) {
	t.Run("Should include code and details", func(t *testing.T) {
		p := NormalizeProblem(NewProblem(http.StatusNotFound, "no_grounding", "no passages matched"))
		body := BuildProblemBody(p)
		assert.Equal(t, http.StatusNotFound, body["status"])
		assert.Equal(t, "Not Found", body["error"])
		assert.Equal(t, "no_grounding", body["code"])
		assert.Equal(t, "no passages matched", body["details"])
		assert.NotContains(t, body, "instance")
	})

	t.Run("Should not let extras override reserved keys", func(t *testing.T) {
		p := NormalizeProblem(&Problem{
			Status: http.StatusTooManyRequests,
			Extras: map[string]any{"status": 200, "retry_after": 30},
		})
		body := BuildProblemBody(p)
		assert.Equal(t, http.StatusTooManyRequests, body["status"])
		assert.Equal(t, 30, body["retry_after"])
	})
}
