package helpers

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Mode selects how command results are rendered.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"

	// FlagFormat is the persistent output format flag.
	FlagFormat = "format"
)

// DetectMode reads the --format flag. Anything other than json renders text.
func DetectMode(cmd *cobra.Command) Mode {
	if cmd == nil {
		return ModeText
	}
	format, err := cmd.Flags().GetString(FlagFormat)
	if err != nil {
		return ModeText
	}
	if strings.EqualFold(strings.TrimSpace(format), string(ModeJSON)) {
		return ModeJSON
	}
	return ModeText
}

// ShouldUseColor respects NO_COLOR and dumb terminals.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
