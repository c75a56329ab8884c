package api

import (
	"fmt"
	"net/http"

	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/mode"

	"github.com/gin-gonic/gin"

	log "github.com/sirupsen/logrus"
)

type ModeHandler struct {
	mode *mode.Switch
}

func NewModeHandler(sw *mode.Switch) *ModeHandler {
	return &ModeHandler{mode: sw}
}

// SwitchModeRequest names the target mode and the view to refresh afterwards.
type SwitchModeRequest struct {
	Mode     string `json:"mode" binding:"required"`
	View     string `json:"view"`
	Exercise string `json:"exercise"` // progress view only
}

type ModeResponse struct {
	Mode    domain.Mode `json:"mode"`
	Changed bool        `json:"changed"`
	Stale   bool        `json:"stale,omitempty"` // refresh after the switch failed
}

func (h *ModeHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, ModeResponse{Mode: h.mode.Active()})
}

// Switch godoc
// @Summary Switch the active mode
// @Description Switches the process-wide mode and reloads posts, rankings and the given view.
// @Tags Mode
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SwitchModeRequest true "Target mode"
// @Success 200 {object} ModeResponse
// @Failure 400 {object} gin.H "Unknown mode or view"
// @Router /mode [put]
func (h *ModeHandler) Switch(c *gin.Context) {
	var req SwitchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	target, ok := domain.ParseMode(req.Mode)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown mode", "field": "mode"})
		return
	}
	view, err := mode.ParseView(req.View)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "view"})
		return
	}

	state := mode.ViewState{View: view}
	if view == mode.ViewProgress {
		exercise, ok := domain.ParseExerciseType(req.Exercise)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown exercise type", "field": "exercise"})
			return
		}
		userID, err := getUserIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
			return
		}
		state.UserID = userID
		state.Exercise = exercise
	}

	changed, err := h.mode.Switch(c.Request.Context(), target, state)
	resp := ModeResponse{Mode: h.mode.Active(), Changed: changed}
	if err != nil {
		// the switch holds; the views reload on their next read
		log.WithError(err).WithField("mode", target).Warn("refresh after mode switch failed")
		resp.Stale = true
	}
	c.JSON(http.StatusOK, resp)
}
