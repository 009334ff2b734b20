package orchestrator

import (
	"context"
	"errors"
	"net"
	"regexp"
)

// ErrAllBackendsFailed is returned when every registered backend failed.
var ErrAllBackendsFailed = errors.New("all backends failed")

// ErrNoBackends is returned when the registry for an operation is empty.
var ErrNoBackends = errors.New("no backends registered")

var transientRetryPattern = regexp.MustCompile(
	`(?i)(timeout|temporarily|try again|rate limit|too many requests|429|502|503|overloaded)`,
)

// isRetryableError reports whether a failure is worth repeating against the
// same backend before failing over.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return transientRetryPattern.MatchString(err.Error())
}
