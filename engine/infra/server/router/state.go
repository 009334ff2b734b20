package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/infra/server/appstate"
)

// GetAppState returns the request's app state, or writes a 500 and returns
// nil when the state middleware is missing.
func GetAppState(c *gin.Context) *appstate.State {
	state, err := appstate.GetState(c.Request.Context())
	if err != nil {
		RespondProblemWithCode(c, http.StatusInternalServerError, ErrInternalCode, "application state not initialized")
		return nil
	}
	return state
}
