package domain_test

import (
	"testing"
	"time"

	"alcyxob/growrep/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, "posts", domain.Resolve(domain.PostsCollection, domain.ModePrototype))
	assert.Equal(t, "posts_alt", domain.Resolve(domain.PostsCollection, domain.ModeAlternate))
	assert.Equal(t, "settings_alt", domain.ModeAlternate.Collection(domain.SettingsCollection))
}

func TestParseMode(t *testing.T) {
	m, ok := domain.ParseMode("alternate")
	require.True(t, ok)
	assert.Equal(t, domain.ModeAlternate, m)

	_, ok = domain.ParseMode("beta")
	assert.False(t, ok)
}

func TestExerciseType(t *testing.T) {
	assert.Len(t, domain.ExerciseTypes, 5)
	for _, e := range domain.ExerciseTypes {
		assert.True(t, e.Valid(), e)
	}
	_, ok := domain.ParseExerciseType("")
	assert.False(t, ok)
	_, ok = domain.ParseExerciseType("plank")
	assert.False(t, ok)

	assert.Equal(t, "seconds", domain.ExerciseLsit.Unit())
	assert.Equal(t, "reps", domain.ExercisePushup.Unit())
}

func TestMultiplierSettings(t *testing.T) {
	var empty domain.MultiplierSettings
	for _, e := range domain.ExerciseTypes {
		assert.Equal(t, domain.DefaultMultiplier, empty.For(e))
	}

	m := domain.DefaultMultipliers()
	m.Set(domain.ExerciseSquat, 0.5)
	m.Set(domain.ExerciseLsit, 2.5)
	assert.Equal(t, 0.5, m.For(domain.ExerciseSquat))
	assert.Equal(t, 2.5, m.AsMap()[domain.ExerciseLsit])
	assert.Equal(t, 1.0, m.AsMap()[domain.ExercisePullup])
}

func TestExerciseRecord_CloneAndLikes(t *testing.T) {
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := domain.ExerciseRecord{
		Timestamp: &ts,
		Likes:     []primitive.ObjectID{u1},
		Comments:  []domain.Comment{{Text: "nice"}},
	}
	assert.True(t, r.LikedBy(u1))
	assert.False(t, r.LikedBy(u2))
	assert.False(t, r.Pending())

	c := r.Clone()
	c.Likes[0] = u2
	c.Comments[0].Text = "changed"
	*c.Timestamp = ts.Add(time.Hour)

	assert.True(t, r.LikedBy(u1))
	assert.Equal(t, "nice", r.Comments[0].Text)
	assert.Equal(t, ts, *r.Timestamp)

	assert.True(t, (&domain.ExerciseRecord{}).Pending())
}
