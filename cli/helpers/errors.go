package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// CliError represents a CLI-specific error with a stable code
type CliError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CliError) Unwrap() error { return e.cause }

// NewCliError creates a new CLI error
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithCause keeps err reachable through errors.Is and errors.As.
func (e *CliError) WithCause(err error) *CliError {
	e.cause = err
	return e
}

// FormatError formats errors based on output mode
func FormatError(err error, mode Mode) string {
	if err == nil {
		return ""
	}
	if mode == ModeJSON {
		return formatErrorJSON(err)
	}
	return formatErrorText(err)
}

func formatErrorJSON(err error) string {
	message, details := extractErrorInfo(err)
	code := "ERROR"
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		code = cliErr.Code
	}
	data, mErr := json.MarshalIndent(map[string]any{
		"code":    code,
		"error":   message,
		"details": details,
	}, "", "  ")
	if mErr != nil {
		return `{"error": "JSON marshaling failed", "details": ""}`
	}
	return string(data)
}

func formatErrorText(err error) string {
	message, details := extractErrorInfo(err)
	out := "✗ " + render(errorStyle, message)
	if details != "" {
		out += "\n" + render(detailStyle, fmt.Sprintf("Details: %s", details))
	}
	return out
}

func extractErrorInfo(err error) (message, details string) {
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		return cliErr.Message, cliErr.Details
	}
	return err.Error(), ""
}

// OutputError writes err to w in the appropriate format
func OutputError(w io.Writer, err error, mode Mode) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, mode))
}
