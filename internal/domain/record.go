// internal/domain/record.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseRecord is a single logged result (a "post" in the feed).
// Only likes and comments change after creation; the owner may delete the whole record.
type ExerciseRecord struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID   `bson:"userId" json:"userId"`
	UserEmail    string               `bson:"userEmail" json:"userEmail"`
	ExerciseType ExerciseType         `bson:"exerciseType" json:"exerciseType"`
	Value        int                  `bson:"value" json:"value"`
	Timestamp    *time.Time           `bson:"timestamp" json:"timestamp"` // nil while the store has not committed the write
	Likes        []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments     []Comment            `bson:"comments" json:"comments"`
}

// Comment is embedded in its parent record; it has no identity besides its position.
type Comment struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	Text      string             `bson:"text" json:"text"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Pending reports whether the record still waits for its server timestamp.
func (r *ExerciseRecord) Pending() bool {
	return r.Timestamp == nil
}

// LikedBy reports whether userID is in the record's like set.
func (r *ExerciseRecord) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range r.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate likes and comments freely.
func (r ExerciseRecord) Clone() ExerciseRecord {
	out := r
	if r.Timestamp != nil {
		ts := *r.Timestamp
		out.Timestamp = &ts
	}
	out.Likes = append([]primitive.ObjectID{}, r.Likes...)
	out.Comments = append([]Comment{}, r.Comments...)
	return out
}
