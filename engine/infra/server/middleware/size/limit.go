package size

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/infra/server/router"
)

// DefaultBodyLimit comfortably fits a chat message with a full history.
const DefaultBodyLimit int64 = 64 << 10

// BodySizeLimiter limits the request body size. Requests that declare a
// larger body are rejected before the handler runs.
func BodySizeLimiter(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			router.RespondProblemWithCode(c, http.StatusRequestEntityTooLarge, "payload_too_large",
				"request body is too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
