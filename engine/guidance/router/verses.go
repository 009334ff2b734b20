package guidancerouter

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/infra/server/router"
)

// listVerses lists verses in canonical order, optionally for one chapter.
//
//	@Summary		List verses
//	@Tags			verses
//	@Produce		json
//	@Param			chapter	query		int		false	"Chapter 1-18"
//	@Success		200		{array}		passage.Passage
//	@Failure		400		{object}	router.ProblemDocument	"Invalid chapter"
//	@Router			/verses [get]
func listVerses(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	chapter := 0
	if raw := c.Query("chapter"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n == 0 {
			router.RespondError(c, fmt.Errorf("%w: chapter must be a number between 1 and 18", guidance.ErrInvalidQuery))
			return
		}
		chapter = n
	}
	verses, err := state.Guidance.Verses(c.Request.Context(), chapter)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verses)
}

func getVerse(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		router.RespondError(c, fmt.Errorf("%w: verse id must be a number", guidance.ErrInvalidQuery))
		return
	}
	verse, err := state.Guidance.Verse(c.Request.Context(), id)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verse)
}

func dailyVerse(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	verse, err := state.Guidance.DailyVerse(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verse)
}

// listChapters lists the eighteen chapters with stored verse counts.
//
//	@Summary		List chapters
//	@Tags			verses
//	@Produce		json
//	@Success		200	{array}	guidance.ChapterSummary
//	@Router			/chapters [get]
func listChapters(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	chapters, err := state.Guidance.Chapters(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}
