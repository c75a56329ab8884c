package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/ranking"
	"alcyxob/growrep/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler serves the feed and every record write.
type PostHandler struct {
	mode        *mode.Switch
	posts       *service.PostService
	leaderboard *service.LeaderboardService
}

func NewPostHandler(sw *mode.Switch, posts *service.PostService, leaderboard *service.LeaderboardService) *PostHandler {
	return &PostHandler{mode: sw, posts: posts, leaderboard: leaderboard}
}

// --- DTOs ---

// SubmitRequest accepts the value as a JSON number or string; both go through the same parser.
type SubmitRequest struct {
	ExerciseType string          `json:"exerciseType" binding:"required"`
	Value        json.RawMessage `json:"value" binding:"required"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	Index     int       `json:"index"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	CanDelete bool      `json:"canDelete"`
}

type PostResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	UserName      string              `json:"userName"`
	UserEmail     string              `json:"userEmail"`
	ExerciseType  domain.ExerciseType `json:"exerciseType"`
	Unit          string              `json:"unit"`
	Value         int                 `json:"value"`
	Timestamp     *time.Time          `json:"timestamp"`
	Pending       bool                `json:"pending"`
	LikeCount     int                 `json:"likeCount"`
	LikedByViewer bool                `json:"likedByViewer"`
	IsOwner       bool                `json:"isOwner"`
	Comments      []CommentResponse   `json:"comments"`
}

// --- Handler Methods ---

// Feed godoc
// @Summary List the active mode's records, newest first
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {array} PostResponse
// @Router /posts [get]
func (h *PostHandler) Feed(c *gin.Context) {
	viewer, ok := getAuthorFromContext(c)
	if !ok {
		return
	}
	force, ok := wantsRefresh(c)
	if !ok {
		return
	}
	items, err := h.leaderboard.Feed(c.Request.Context(), h.mode.Active(), force)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapFeedToResponse(items, viewer.UserID))
}

// Submit godoc
// @Summary Log a new exercise result in the active mode
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param record body SubmitRequest true "Exercise type and value"
// @Success 201 {object} PostResponse
// @Failure 400 {object} gin.H "Invalid exercise type or value"
// @Router /posts [post]
func (h *PostHandler) Submit(c *gin.Context) {
	author, ok := getAuthorFromContext(c)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	record, err := h.posts.Submit(c.Request.Context(), h.mode.Active(), author, req.ExerciseType, rawValue(req.Value))
	if err != nil {
		respondWithError(c, err)
		return
	}
	item := ranking.FeedItem{
		ExerciseRecord: *record,
		UserName:       author.Email,
		Unit:           record.ExerciseType.Unit(),
		Pending:        record.Pending(),
	}
	c.JSON(http.StatusCreated, MapFeedItemToResponse(item, author.UserID))
}

func (h *PostHandler) Delete(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
		return
	}
	recordID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), h.mode.Active(), recordID, userID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleLike likes the record, or removes the caller's like if present.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
		return
	}
	recordID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.posts.ToggleLike(c.Request.Context(), h.mode.Active(), recordID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	author, ok := getAuthorFromContext(c)
	if !ok {
		return
	}
	recordID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	comment, err := h.posts.AddComment(c.Request.Context(), h.mode.Active(), recordID, author, req.Text)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment removes a comment by its position in the record.
func (h *PostHandler) DeleteComment(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user")
		return
	}
	recordID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid index format")
		return
	}
	if err := h.posts.DeleteComment(c.Request.Context(), h.mode.Active(), recordID, index, userID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// rawValue unquotes JSON strings and passes numbers through verbatim.
func rawValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// MapFeedToResponse builds fresh DTOs; cached feed items are shared and never modified.
func MapFeedToResponse(items []ranking.FeedItem, viewer primitive.ObjectID) []PostResponse {
	out := make([]PostResponse, 0, len(items))
	for _, item := range items {
		out = append(out, MapFeedItemToResponse(item, viewer))
	}
	return out
}

func MapFeedItemToResponse(item ranking.FeedItem, viewer primitive.ObjectID) PostResponse {
	isOwner := item.UserID == viewer
	comments := make([]CommentResponse, 0, len(item.Comments))
	for i, cm := range item.Comments {
		comments = append(comments, CommentResponse{
			Index:     i,
			UserID:    cm.UserID.Hex(),
			UserEmail: cm.UserEmail,
			Text:      cm.Text,
			Timestamp: cm.Timestamp,
			CanDelete: isOwner || cm.UserID == viewer,
		})
	}
	return PostResponse{
		ID:            item.ID.Hex(),
		UserID:        item.UserID.Hex(),
		UserName:      item.UserName,
		UserEmail:     item.UserEmail,
		ExerciseType:  item.ExerciseType,
		Unit:          item.Unit,
		Value:         item.Value,
		Timestamp:     item.Timestamp,
		Pending:       item.Pending,
		LikeCount:     item.LikeCount,
		LikedByViewer: item.LikedBy(viewer),
		IsOwner:       isOwner,
		Comments:      comments,
	}
}
