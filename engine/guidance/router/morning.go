package guidancerouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/infra/server/router"
)

// morningGreeting writes a greeting anchored on the verse of the day.
//
//	@Summary		Morning greeting
//	@Tags			guidance
//	@Accept			json
//	@Produce		json
//	@Param			request	body		guidance.MorningRequest	false	"Mode and language"
//	@Success		200		{object}	guidance.MorningGreetingResponse
//	@Failure		400		{object}	router.ProblemDocument	"Invalid input"
//	@Failure		404		{object}	router.ProblemDocument	"No verses seeded yet"
//	@Failure		503		{object}	router.ProblemDocument	"All backends failed"
//	@Router			/morning-greeting [post]
func morningGreeting(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req guidance.MorningRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	resp, err := state.Guidance.MorningGreeting(c.Request.Context(), &req)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
