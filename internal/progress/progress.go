// Package progress extracts one user's history for one exercise.
package progress

import (
	"sort"
	"time"

	"alcyxob/growrep/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Point is a single observation in a series.
type Point struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// Series is a time-ordered history. An empty Points slice is a valid result.
type Series struct {
	UserID       primitive.ObjectID  `json:"userId"`
	ExerciseType domain.ExerciseType `json:"exerciseType"`
	Unit         string              `json:"unit"`
	Points       []Point             `json:"points"`
}

// Empty reports whether the user has no committed records for the exercise.
func (s *Series) Empty() bool {
	return len(s.Points) == 0
}

// SubKey identifies a series in the cache.
func SubKey(userID primitive.ObjectID, e domain.ExerciseType) string {
	return userID.Hex() + ":" + string(e)
}

// Build filters records down to userID and e and sorts them by ascending timestamp.
// Records still waiting for their timestamp are skipped.
func Build(records []*domain.ExerciseRecord, userID primitive.ObjectID, e domain.ExerciseType) *Series {
	s := &Series{
		UserID:       userID,
		ExerciseType: e,
		Unit:         e.Unit(),
		Points:       []Point{},
	}
	for _, r := range records {
		if r == nil || r.UserID != userID || r.ExerciseType != e || r.Pending() {
			continue
		}
		s.Points = append(s.Points, Point{Date: *r.Timestamp, Value: r.Value})
	}
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})
	return s
}
