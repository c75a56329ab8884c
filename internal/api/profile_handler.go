package api

import (
	"fmt"
	"net/http"

	"alcyxob/growrep/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type UpdateUserNameRequest struct {
	UserName string `json:"userName" binding:"required"`
}

// Me returns the caller's profile, creating it on first use.
func (h *ProfileHandler) Me(c *gin.Context) {
	author, ok := getAuthorFromContext(c)
	if !ok {
		return
	}
	profile, err := h.profiles.EnsureProfile(c.Request.Context(), author.UserID, author.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateUserName godoc
// @Summary Change the caller's user name
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateUserNameRequest true "New user name"
// @Success 200 {object} domain.UserProfile
// @Failure 400 {object} gin.H "Invalid length"
// @Failure 409 {object} gin.H "User name taken"
// @Router /me/username [put]
func (h *ProfileHandler) UpdateUserName(c *gin.Context) {
	author, ok := getAuthorFromContext(c)
	if !ok {
		return
	}
	var req UpdateUserNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	profile, err := h.profiles.UpdateUserName(c.Request.Context(), author.UserID, req.UserName)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
