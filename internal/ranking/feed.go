package ranking

import (
	"sort"

	"alcyxob/growrep/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedItem is a record prepared for display.
type FeedItem struct {
	domain.ExerciseRecord
	UserName  string `json:"userName"`
	Unit      string `json:"unit"`
	LikeCount int    `json:"likeCount"`
	Pending   bool   `json:"pending"` // timestamp not yet committed, show a placeholder
}

// BuildFeed orders records newest first. Pending records come before everything else.
// The input is not modified.
func BuildFeed(records []*domain.ExerciseRecord, profiles []*domain.UserProfile) []FeedItem {
	names := displayNames(records, profiles)

	items := make([]FeedItem, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		items = append(items, FeedItem{
			ExerciseRecord: r.Clone(),
			UserName:       names[r.UserID].name,
			Unit:           r.ExerciseType.Unit(),
			LikeCount:      len(r.Likes),
			Pending:        r.Pending(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Timestamp, items[j].Timestamp
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.After(*b)
		}
	})
	return items
}

// LikeToggle is a like or unlike applied optimistically before the store confirms it.
type LikeToggle struct {
	RecordID primitive.ObjectID
	UserID   primitive.ObjectID
	Like     bool // true adds userID to the like set, false removes it
}

// NewLikeToggle flips userID's membership in the record's like set.
func NewLikeToggle(record *domain.ExerciseRecord, userID primitive.ObjectID) LikeToggle {
	return LikeToggle{
		RecordID: record.ID,
		UserID:   userID,
		Like:     !record.LikedBy(userID),
	}
}

// Apply returns a copy of items with the tentative toggle applied.
func (t LikeToggle) Apply(items []FeedItem) []FeedItem {
	return t.mutate(items, t.Like)
}

// Revert undoes Apply on a copy of items.
func (t LikeToggle) Revert(items []FeedItem) []FeedItem {
	return t.mutate(items, !t.Like)
}

func (t LikeToggle) mutate(items []FeedItem, like bool) []FeedItem {
	out := make([]FeedItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID != t.RecordID {
			continue
		}
		rec := out[i].ExerciseRecord.Clone()
		rec.Likes = toggled(rec.Likes, t.UserID, like)
		out[i].ExerciseRecord = rec
		out[i].LikeCount = len(rec.Likes)
	}
	return out
}

func toggled(likes []primitive.ObjectID, userID primitive.ObjectID, like bool) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(likes)+1)
	present := false
	for _, id := range likes {
		if id == userID {
			present = true
			if !like {
				continue
			}
		}
		out = append(out, id)
	}
	if like && !present {
		out = append(out, userID)
	}
	return out
}
