package api

import (
	"fmt"
	"net/http"

	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/service"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	mode     *mode.Switch
	settings *service.SettingsService
}

func NewSettingsHandler(sw *mode.Switch, settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{mode: sw, settings: settings}
}

func (h *SettingsHandler) GetMultipliers(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), h.mode.Active())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateMultipliers godoc
// @Summary Update scoring multipliers of the active mode
// @Description Partial update keyed by exercise type, e.g. {"pushup": 1.5}.
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.MultiplierSettings
// @Failure 400 {object} gin.H "Unknown exercise or multiplier below the minimum"
// @Router /settings/multipliers [put]
func (h *SettingsHandler) UpdateMultipliers(c *gin.Context) {
	var patch map[string]float64
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), h.mode.Active(), patch)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
