package guidancerouter

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/infra/server/router"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	eventToken = "token"
	eventDone  = "done"
	eventError = "error"
)

// tokenDelay paces token events so clients render a typing effect.
var tokenDelay = 20 * time.Millisecond

// chat answers one conversational message.
//
//	@Summary		Chat
//	@Tags			guidance
//	@Accept			json
//	@Produce		json
//	@Param			request	body		guidance.ChatRequest		true	"Message and history"
//	@Success		200		{object}	guidance.ChatResponse
//	@Failure		400		{object}	router.ProblemDocument	"Invalid input"
//	@Failure		404		{object}	router.ProblemDocument	"No grounding verses"
//	@Failure		503		{object}	router.ProblemDocument	"All backends failed"
//	@Router			/chat [post]
func chat(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req guidance.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := state.Guidance.Chat(c.Request.Context(), &req)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// chatStream answers like chat but streams the reply as SSE token events
// followed by a done event carrying the verified result. Invalid requests are
// rejected before the stream opens; later failures are sent as an error event.
//
//	@Summary		Chat over Server-Sent Events
//	@Tags			guidance
//	@Accept			json
//	@Produce		text/event-stream
//	@Param			request	body		guidance.ChatRequest		true	"Message and history"
//	@Success		200		{string}	string					"SSE stream"
//	@Failure		400		{object}	router.ProblemDocument	"Invalid input"
//	@Router			/chat/stream [post]
func chatStream(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req guidance.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Normalize(); err != nil {
		router.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	stream := router.StartSSE(c.Writer)
	if stream == nil {
		router.RespondProblemWithCode(c, http.StatusInternalServerError, router.ErrInternalCode,
			"failed to initialize stream")
		return
	}
	resp, err := state.Guidance.Chat(ctx, &req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		writeStreamError(c, stream, err)
		return
	}
	for _, chunk := range guidance.ReplyChunks(resp.Reply, guidance.StreamChunkChars) {
		if ctx.Err() != nil {
			log.Debug("Chat stream client disconnected")
			return
		}
		if err := stream.WriteEvent(eventToken, gin.H{"token": chunk}); err != nil {
			log.Debug("Chat stream write failed", "error", err)
			return
		}
		if tokenDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(tokenDelay):
			}
		}
	}
	if err := stream.WriteEvent(eventDone, resp); err != nil {
		log.Debug("Chat stream write failed", "error", err)
	}
}

func writeStreamError(c *gin.Context, stream *router.SSEStream, err error) {
	problem := router.ProblemFromError(err)
	if problem.Status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Chat stream failed", "error", err)
	}
	if writeErr := stream.WriteEvent(eventError, gin.H{
		"message":     problem.Detail,
		"status_code": problem.Status,
	}); writeErr != nil {
		logger.FromContext(c.Request.Context()).Debug("Chat stream write failed", "error", writeErr)
	}
}
