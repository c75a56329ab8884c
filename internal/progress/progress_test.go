package progress

import (
	"testing"
	"time"

	"alcyxob/growrep/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuild(t *testing.T) {
	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	day := func(d int) *time.Time {
		ts := time.Date(2024, 1, d, 8, 0, 0, 0, time.UTC)
		return &ts
	}
	records := []*domain.ExerciseRecord{
		{UserID: me, ExerciseType: domain.ExercisePushup, Value: 15, Timestamp: day(3)},
		{UserID: me, ExerciseType: domain.ExercisePushup, Value: 10, Timestamp: day(1)},
		{UserID: me, ExerciseType: domain.ExerciseSquat, Value: 50, Timestamp: day(2)},
		{UserID: other, ExerciseType: domain.ExercisePushup, Value: 99, Timestamp: day(2)},
		{UserID: me, ExerciseType: domain.ExercisePushup, Value: 20, Timestamp: nil},
		{UserID: me, ExerciseType: domain.ExercisePushup, Value: 12, Timestamp: day(2)},
	}

	s := Build(records, me, domain.ExercisePushup)
	require.Len(t, s.Points, 3)
	assert.Equal(t, []int{10, 12, 15}, []int{s.Points[0].Value, s.Points[1].Value, s.Points[2].Value})
	assert.Equal(t, *day(1), s.Points[0].Date)
	assert.Equal(t, "reps", s.Unit)
	assert.False(t, s.Empty())
}

func TestBuild_EmptyIsValid(t *testing.T) {
	me := primitive.NewObjectID()
	s := Build(nil, me, domain.ExerciseLsit)
	require.NotNil(t, s)
	assert.True(t, s.Empty())
	assert.NotNil(t, s.Points)
	assert.Equal(t, "seconds", s.Unit)
}

func TestSubKey(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, id.Hex()+":dips", SubKey(id, domain.ExerciseDips))
	assert.NotEqual(t, SubKey(id, domain.ExerciseDips), SubKey(id, domain.ExerciseSquat))
}
