package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/metrics"
	"alcyxob/growrep/internal/ranking"
	"alcyxob/growrep/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"

	log "github.com/sirupsen/logrus"
)

// Author identifies the signed-in user performing a write.
type Author struct {
	UserID primitive.ObjectID
	Email  string
}

// LikeResult is the like state of a record after a toggle.
type LikeResult struct {
	RecordID  primitive.ObjectID `json:"recordId"`
	Liked     bool               `json:"liked"`
	LikeCount int                `json:"likeCount"`
}

// PostService handles every write to exercise records. Each successful write
// flushes the whole mode from the cache.
type PostService struct {
	records     repository.RecordRepository
	cache       *cache.Cache
	leaderboard *LeaderboardService
	metrics     *metrics.Manager
}

func NewPostService(records repository.RecordRepository, c *cache.Cache, leaderboard *LeaderboardService, m *metrics.Manager) *PostService {
	return &PostService{
		records:     records,
		cache:       c,
		leaderboard: leaderboard,
		metrics:     m,
	}
}

// ParseValue accepts a plain base-10 integer in [MinRecordValue, MaxRecordValue].
func ParseValue(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid("value", "is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("value", "must be a whole number")
	}
	if v < domain.MinRecordValue || v > domain.MaxRecordValue {
		return 0, invalid("value", "must be between %d and %d", domain.MinRecordValue, domain.MaxRecordValue)
	}
	return v, nil
}

// Submit validates the input and stores a new record. Nothing reaches the store on invalid input.
func (s *PostService) Submit(ctx context.Context, m domain.Mode, author Author, rawExercise, rawValue string) (*domain.ExerciseRecord, error) {
	exercise, ok := domain.ParseExerciseType(rawExercise)
	if !ok {
		return nil, invalid("exerciseType", "must be one of %v", domain.ExerciseTypes)
	}
	value, err := ParseValue(rawValue)
	if err != nil {
		return nil, err
	}
	if author.UserID.IsZero() {
		return nil, errors.New("author is required to submit a record")
	}

	record := &domain.ExerciseRecord{
		UserID:       author.UserID,
		UserEmail:    author.Email,
		ExerciseType: exercise,
		Value:        value,
		Likes:        []primitive.ObjectID{},
		Comments:     []domain.Comment{},
	}
	if _, err := s.records.Create(ctx, m, record); err != nil {
		s.storeError("create_record")
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	s.cache.InvalidateMode(m)

	if s.metrics != nil {
		s.metrics.CounterRecordsSubmitted.WithLabelValues(string(m), string(exercise)).Inc()
	}
	log.WithFields(log.Fields{
		"mode":     m,
		"recordID": record.ID.Hex(),
		"exercise": exercise,
		"value":    value,
	}).Info("record submitted")
	return record, nil
}

// Delete removes a record owned by userID.
func (s *PostService) Delete(ctx context.Context, m domain.Mode, recordID, userID primitive.ObjectID) error {
	record, err := s.fetch(ctx, m, recordID)
	if err != nil {
		return err
	}
	if record.UserID != userID {
		return ErrForbidden
	}
	if err := s.records.Delete(ctx, m, recordID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		s.storeError("delete_record")
		return fmt.Errorf("failed to delete record: %w", err)
	}
	s.cache.InvalidateMode(m)
	return nil
}

// ToggleLike flips userID's like on a freshly read record. The toggle is shown
// in the cached feed right away; a failed write rolls it back and reloads the feed.
func (s *PostService) ToggleLike(ctx context.Context, m domain.Mode, recordID, userID primitive.ObjectID) (*LikeResult, error) {
	record, err := s.fetch(ctx, m, recordID)
	if err != nil {
		return nil, err
	}
	toggle := ranking.NewLikeToggle(record, userID)
	s.tentative(m, toggle)

	if toggle.Like {
		err = s.records.AddLike(ctx, m, recordID, userID)
	} else {
		err = s.records.RemoveLike(ctx, m, recordID, userID)
	}
	if err != nil {
		s.storeError("toggle_like")
		s.rollback(ctx, m, toggle)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	// confirmed
	s.cache.InvalidateMode(m)

	count := len(record.Likes)
	if toggle.Like {
		count++
	} else {
		count--
	}
	return &LikeResult{RecordID: recordID, Liked: toggle.Like, LikeCount: count}, nil
}

func (s *PostService) tentative(m domain.Mode, toggle ranking.LikeToggle) {
	cached, ok := s.cache.Get(m, cache.KindPosts, "")
	if !ok {
		return
	}
	if feed, ok := cached.([]ranking.FeedItem); ok {
		s.cache.Put(m, cache.KindPosts, "", toggle.Apply(feed))
	}
}

func (s *PostService) rollback(ctx context.Context, m domain.Mode, toggle ranking.LikeToggle) {
	if cached, ok := s.cache.Get(m, cache.KindPosts, ""); ok {
		if feed, ok := cached.([]ranking.FeedItem); ok {
			s.cache.Put(m, cache.KindPosts, "", toggle.Revert(feed))
		}
	}
	if s.leaderboard == nil {
		s.cache.Invalidate(m, cache.KindPosts, "")
		return
	}
	if _, err := s.leaderboard.Feed(ctx, m, true); err != nil {
		// the reverted copy stays until the next successful read
		log.WithError(err).WithField("mode", m).Warn("failed to reload feed after like rollback")
	}
}

// AddComment appends a comment of 1 to MaxCommentLength characters after trimming.
func (s *PostService) AddComment(ctx context.Context, m domain.Mode, recordID primitive.ObjectID, author Author, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text", "is required")
	}
	if n := utf8.RuneCountInString(text); n > domain.MaxCommentLength {
		return nil, invalid("text", "must be at most %d characters, got %d", domain.MaxCommentLength, n)
	}

	comment := domain.Comment{
		UserID:    author.UserID,
		UserEmail: author.Email,
		Text:      text,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.records.AddComment(ctx, m, recordID, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		s.storeError("add_comment")
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	s.cache.InvalidateMode(m)
	return &comment, nil
}

// DeleteComment removes the comment at index. The record is re-read right
// before splicing, which narrows but does not close the window for lost updates.
// The comment's author and the record's owner may delete it.
func (s *PostService) DeleteComment(ctx context.Context, m domain.Mode, recordID primitive.ObjectID, index int, userID primitive.ObjectID) error {
	record, err := s.fetch(ctx, m, recordID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(record.Comments) {
		return ErrCommentNotFound
	}
	if record.Comments[index].UserID != userID && record.UserID != userID {
		return ErrForbidden
	}

	comments := make([]domain.Comment, 0, len(record.Comments)-1)
	comments = append(comments, record.Comments[:index]...)
	comments = append(comments, record.Comments[index+1:]...)

	if err := s.records.ReplaceComments(ctx, m, recordID, comments); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		s.storeError("replace_comments")
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.cache.InvalidateMode(m)
	return nil
}

func (s *PostService) fetch(ctx context.Context, m domain.Mode, recordID primitive.ObjectID) (*domain.ExerciseRecord, error) {
	record, err := s.records.GetByID(ctx, m, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		s.storeError("get_record")
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

func (s *PostService) storeError(op string) {
	if s.metrics != nil {
		s.metrics.CounterStoreErrors.WithLabelValues(op).Inc()
	}
}
