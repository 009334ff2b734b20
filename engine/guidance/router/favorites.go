package guidancerouter

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/infra/server/router"
)

type favoriteRequest struct {
	VerseID int `json:"verse_id" binding:"required,gt=0"`
}

func listFavorites(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	favorites, err := state.Guidance.Favorites(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

// addFavorite saves a verse. Saving an already saved verse returns the
// existing favorite.
//
//	@Summary		Save a favorite verse
//	@Tags			favorites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		favoriteRequest	true	"Verse id"
//	@Success		201		{object}	guidance.FavoriteVerse
//	@Failure		400		{object}	router.ProblemDocument	"Invalid input"
//	@Failure		404		{object}	router.ProblemDocument	"Verse not found"
//	@Router			/favorites [post]
func addFavorite(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req favoriteRequest
	if !bindJSON(c, &req) {
		return
	}
	fav, err := state.Guidance.AddFavorite(c.Request.Context(), req.VerseID)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

func removeFavorite(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("verse_id"))
	if err != nil {
		router.RespondError(c, fmt.Errorf("%w: verse id must be a number", guidance.ErrInvalidQuery))
		return
	}
	if err := state.Guidance.RemoveFavorite(c.Request.Context(), id); err != nil {
		router.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
