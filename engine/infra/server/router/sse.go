package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errStreamClosed = errors.New("sse stream closed")

// SSEStream writes Server-Sent Events frames of the form
// "event: <type>\ndata: <json>\n\n" and flushes each one.
type SSEStream struct {
	w       gin.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// StartSSE sets the streaming headers and commits a 200 status. It returns
// nil when the writer cannot flush.
func StartSSE(w gin.ResponseWriter) *SSEStream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSEStream{w: w, flusher: flusher}
}

// WriteEvent encodes data as JSON and writes one event.
func (s *SSEStream) WriteEvent(eventType string, data any) error {
	if s.closed {
		return errStreamClosed
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		s.closed = true
		return fmt.Errorf("write %s event: %w", eventType, err)
	}
	s.flusher.Flush()
	return nil
}
