package guidancerouter

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/infra/server/router"
)

// bindJSON decodes the body. Decode failures are reported as invalid input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		router.RespondError(c, fmt.Errorf("%w: %w", guidance.ErrInvalidQuery, err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		router.RespondError(c, fmt.Errorf("%w: %w", guidance.ErrInvalidQuery, err))
		return false
	}
	return true
}

// ask answers a free-form question grounded in retrieved verses.
//
//	@Summary		Ask a question
//	@Tags			guidance
//	@Accept			json
//	@Produce		json
//	@Param			request	body		guidance.AskRequest			true	"Question"
//	@Success		200		{object}	guidance.GuidanceResponse
//	@Failure		400		{object}	router.ProblemDocument	"Invalid input"
//	@Failure		404		{object}	router.ProblemDocument	"No grounding verses"
//	@Failure		503		{object}	router.ProblemDocument	"All backends failed"
//	@Router			/ask [post]
func ask(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req guidance.AskRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := state.Guidance.Ask(c.Request.Context(), &req)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// moodGuidance answers a mood check-in.
//
//	@Summary		Guidance for a mood check-in
//	@Tags			guidance
//	@Accept			json
//	@Produce		json
//	@Param			request	body		guidance.MoodRequest		true	"Moods and optional note"
//	@Success		200		{object}	guidance.GuidanceResponse
//	@Failure		400		{object}	router.ProblemDocument	"Invalid input"
//	@Failure		404		{object}	router.ProblemDocument	"No grounding verses"
//	@Failure		503		{object}	router.ProblemDocument	"All backends failed"
//	@Router			/moods/guidance [post]
func moodGuidance(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req guidance.MoodRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := state.Guidance.MoodGuidance(c.Request.Context(), &req)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func listMoods(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	c.JSON(http.StatusOK, state.Guidance.Moods())
}
