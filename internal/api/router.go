package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cogniverse/internal/auth"
	"cogniverse/internal/config"
)

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// SetupRouter wires the full HTTP surface. Student endpoints resolve either an
// authenticated Bearer identity or the signed anonymous cookie; institute
// endpoints require an admin session.
func SetupRouter(cfg *config.Config, rdb *redis.Client) *gin.Engine {
	r := gin.Default()

	r.GET("/health", healthHandler)
	r.GET("/config", configHandler(cfg))

	// Setup: only if no users
	r.POST("/setup", SetupHandler())

	// Auth
	r.POST("/auth/login", LoginHandler(cfg, rdb))
	r.POST("/auth/logout", auth.AuthMiddleware(cfg, rdb, false), LogoutHandler(rdb))
	r.GET("/auth/me", auth.AuthMiddleware(cfg, rdb, false), MeHandler())
	r.GET("/users/online", OnlineUserCountHandler(rdb))

	// Student surface: durable or ephemeral identity
	ident := r.Group("/", auth.IdentityMiddleware(cfg, rdb))
	{
		ident.POST("/analyze", AnalyzeHandler(cfg))
		ident.GET("/attempts", ListAttemptsHandler())
		ident.GET("/attempts/:id", GetAttemptHandler())

		ident.POST("/events", PostEventHandler())
		ident.GET("/state", StateHandler())
		ident.GET("/nudges", NudgesHandler())

		ident.POST("/instrument/start", InstrumentStartHandler())
		ident.POST("/instrument/event", InstrumentEventHandler())
		ident.POST("/instrument/finish", InstrumentFinishHandler())

		ident.POST("/actions/mark", MarkActionHandler())

		ident.POST("/coach", CoachHandler(cfg))
		ident.GET("/ws/coach", WSCoachHandler(cfg))
	}

	// Institute dashboard: admin only
	r.GET("/institute", auth.AuthMiddleware(cfg, rdb, true), InstituteHandler())

	r.NoRoute(func(c *gin.Context) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Unknown route")
	})

	return r
}
