package guidancerouter

import "github.com/gin-gonic/gin"

// Paths served by this package.
const (
	PathMoods        = "/moods"
	PathMoodGuidance = "/moods/guidance"
	PathAsk          = "/ask"
	PathChat         = "/chat"
	PathChatStream   = "/chat/stream"
	PathVerses       = "/verses"
	PathVerse        = "/verses/:id"
	PathDailyVerse   = "/daily-verse"
	PathChapters     = "/chapters"
	PathMorning      = "/morning-greeting"
	PathFavorites    = "/favorites"
	PathFavorite     = "/favorites/:verse_id"
)

func Register(r gin.IRouter) {
	r.GET(PathMoods, listMoods)
	r.POST(PathMoodGuidance, moodGuidance)
	r.POST(PathAsk, ask)
	r.POST(PathChat, chat)
	r.POST(PathChatStream, chatStream)
	r.GET(PathVerses, listVerses)
	r.GET(PathVerse, getVerse)
	r.GET(PathDailyVerse, dailyVerse)
	r.GET(PathChapters, listChapters)
	r.POST(PathMorning, morningGreeting)
	r.GET(PathFavorites, listFavorites)
	r.POST(PathFavorites, addFavorite)
	r.DELETE(PathFavorite, removeFavorite)
}
