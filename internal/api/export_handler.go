package api

import (
	"net/http"

	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/service"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	mode    *mode.Switch
	exports *service.ExportService
}

func NewExportHandler(sw *mode.Switch, exports *service.ExportService) *ExportHandler {
	return &ExportHandler{mode: sw, exports: exports}
}

// ExportRankings godoc
// @Summary Upload a snapshot of the active mode's leaderboards
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Success 201 {object} service.ExportResult
// @Failure 503 {object} gin.H "Object storage not configured"
// @Router /exports/rankings [post]
func (h *ExportHandler) ExportRankings(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
		return
	}
	res, err := h.exports.ExportRankings(c.Request.Context(), h.mode.Active(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ExportHandler) List(c *gin.Context) {
	list, err := h.exports.List(c.Request.Context(), h.mode.Active())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if list == nil {
		list = []domain.Export{}
	}
	c.JSON(http.StatusOK, list)
}
