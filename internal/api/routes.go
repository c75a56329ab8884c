package api

import (
	"net/http"

	"alcyxob/growrep/internal/identity"
	"alcyxob/growrep/internal/metrics"
	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the components the HTTP layer dispatches to.
type Dependencies struct {
	Identity    identity.Provider
	Mode        *mode.Switch
	Leaderboard *service.LeaderboardService
	Posts       *service.PostService
	Profiles    *service.ProfileService
	Settings    *service.SettingsService
	Exports     *service.ExportService
	Metrics     *metrics.Manager
	Gatherer    prometheus.Gatherer // served on /metrics when set
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Identity)
	postHandler := NewPostHandler(deps.Mode, deps.Posts, deps.Leaderboard)
	leaderboardHandler := NewLeaderboardHandler(deps.Mode, deps.Leaderboard)
	modeHandler := NewModeHandler(deps.Mode)
	profileHandler := NewProfileHandler(deps.Profiles)
	settingsHandler := NewSettingsHandler(deps.Mode, deps.Settings)
	exportHandler := NewExportHandler(deps.Mode, deps.Exports)

	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/password-reset", authHandler.SendPasswordReset)
			authGroup.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.Identity))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.POST("/auth/reauthenticate", authHandler.Reauthenticate)
		protected.PUT("/auth/password", authHandler.ChangePassword)

		protected.GET("/me", profileHandler.Me)
		protected.PUT("/me/username", profileHandler.UpdateUserName)

		protected.GET("/mode", modeHandler.Get)
		protected.PUT("/mode", modeHandler.Switch)

		postGroup := protected.Group("/posts")
		{
			postGroup.GET("", postHandler.Feed)
			postGroup.POST("", postHandler.Submit)
			postGroup.DELETE("/:id", postHandler.Delete)
			postGroup.POST("/:id/like", postHandler.ToggleLike)
			postGroup.POST("/:id/comments", postHandler.AddComment)
			postGroup.DELETE("/:id/comments/:index", postHandler.DeleteComment)
		}

		protected.GET("/rankings", leaderboardHandler.Rankings)
		protected.GET("/scores", leaderboardHandler.Scores)
		protected.GET("/progress", leaderboardHandler.Progress)

		protected.GET("/settings/multipliers", settingsHandler.GetMultipliers)
		protected.PUT("/settings/multipliers", settingsHandler.UpdateMultipliers)

		protected.GET("/exports", exportHandler.List)
		protected.POST("/exports/rankings", exportHandler.ExportRankings)
	}
}
