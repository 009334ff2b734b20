package helpers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDetectMode(t *testing.T) {
	newCmd := func(format string) *cobra.Command {
		cmd := &cobra.Command{Use: "x"}
		cmd.Flags().String(FlagFormat, "text", "")
		require.NoError(t, cmd.Flags().Set(FlagFormat, format))
		return cmd
	}

	t.Run("Should detect JSON regardless of case", func(t *testing.T) {
		assert.Equal(t, ModeJSON, DetectMode(newCmd("JSON")))
	})

	t.Run("Should default to text", func(t *testing.T) {
		assert.Equal(t, ModeText, DetectMode(newCmd("table")))
		assert.Equal(t, ModeText, DetectMode(&cobra.Command{Use: "bare"}))
		assert.Equal(t, ModeText, DetectMode(nil))
	})
}

func TestFormatError(t *testing.T) {
	t.Run("Should render CLI errors as JSON with their code", func(t *testing.T) {
		err := NewCliError("NO_GROUNDING", "No verses found", "try another question")
		out := FormatError(err, ModeJSON)
		assert.Equal(t, "NO_GROUNDING", gjson.Get(out, "code").String())
		assert.Equal(t, "No verses found", gjson.Get(out, "error").String())
		assert.Equal(t, "try another question", gjson.Get(out, "details").String())
	})

	t.Run("Should render plain errors as text without color", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.Equal(t, "✗ boom", FormatError(errors.New("boom"), ModeText))
	})

	t.Run("Should keep the cause reachable", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewCliError("SEED_FAILED", "seeding failed").WithCause(cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Should write nothing for nil errors", func(t *testing.T) {
		var buf bytes.Buffer
		OutputError(&buf, nil, ModeJSON)
		assert.Empty(t, buf.String())
	})
}

func TestField(t *testing.T) {
	t.Run("Should pad labels to the given width", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		var buf bytes.Buffer
		Field(&buf, "model", "mock", 8)
		assert.Equal(t, "model:    mock\n", buf.String())
	})
}
