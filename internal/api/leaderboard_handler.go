package api

import (
	"net/http"

	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/service"

	"github.com/gin-gonic/gin"
)

// LeaderboardHandler serves the derived read views of the active mode.
type LeaderboardHandler struct {
	mode        *mode.Switch
	leaderboard *service.LeaderboardService
}

func NewLeaderboardHandler(sw *mode.Switch, leaderboard *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{mode: sw, leaderboard: leaderboard}
}

// Rankings godoc
// @Summary Per-exercise leaderboards on raw best values
// @Tags Leaderboards
// @Produce json
// @Security BearerAuth
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {array} ranking.Leaderboard
// @Router /rankings [get]
func (h *LeaderboardHandler) Rankings(c *gin.Context) {
	force, ok := wantsRefresh(c)
	if !ok {
		return
	}
	boards, err := h.leaderboard.Rankings(c.Request.Context(), h.mode.Active(), force)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

// Scores godoc
// @Summary Total leaderboard for one scoring metric
// @Tags Leaderboards
// @Produce json
// @Security BearerAuth
// @Param metric query string false "sum, deviation or percentage" default(sum)
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {object} ranking.Leaderboard
// @Failure 400 {object} gin.H "Unknown metric"
// @Router /scores [get]
func (h *LeaderboardHandler) Scores(c *gin.Context) {
	force, ok := wantsRefresh(c)
	if !ok {
		return
	}
	board, err := h.leaderboard.TotalLeaderboard(c.Request.Context(), h.mode.Active(), c.Query("metric"), force)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Progress returns the caller's history for one exercise.
func (h *LeaderboardHandler) Progress(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
		return
	}
	force, ok := wantsRefresh(c)
	if !ok {
		return
	}
	series, err := h.leaderboard.Progress(c.Request.Context(), h.mode.Active(), userID, c.Query("exercise"), force)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
