package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5A623"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func render(style lipgloss.Style, s string) string {
	if !ShouldUseColor() {
		return s
	}
	return style.Render(s)
}

// Title writes a heading line.
func Title(w io.Writer, title string) {
	fmt.Fprintln(w, render(titleStyle, title))
}

// Field writes one "label: value" line with labels padded to width.
func Field(w io.Writer, label string, value any, width int) {
	padded := label + ":" + strings.Repeat(" ", max(width-len(label), 0)+1)
	fmt.Fprintf(w, "%s%v\n", render(labelStyle, padded), value)
}

// Muted writes a de-emphasized line.
func Muted(w io.Writer, s string) {
	fmt.Fprintln(w, render(mutedStyle, s))
}
