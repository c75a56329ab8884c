package scoring

import (
	"math"
	"testing"
	"time"

	"alcyxob/growrep/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func record(uid primitive.ObjectID, email string, e domain.ExerciseType, v int) *domain.ExerciseRecord {
	ts := time.Now()
	return &domain.ExerciseRecord{
		ID:           primitive.NewObjectID(),
		UserID:       uid,
		UserEmail:    email,
		ExerciseType: e,
		Value:        v,
		Timestamp:    &ts,
	}
}

func byUser(res *Result) map[primitive.ObjectID]UserResult {
	out := make(map[primitive.ObjectID]UserResult, len(res.Users))
	for _, u := range res.Users {
		out[u.UserID] = u
	}
	return out
}

func TestBestPerExercise(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	best := BestPerExercise([]*domain.ExerciseRecord{
		record(a, "a@x.io", domain.ExercisePushup, 10),
		record(a, "a@x.io", domain.ExercisePushup, 25),
		record(a, "a@x.io", domain.ExercisePushup, 20),
		record(a, "a@x.io", domain.ExerciseSquat, 5),
		record(b, "b@x.io", domain.ExercisePushup, 7),
		nil,
	})

	assert.Equal(t, 25, best[a][domain.ExercisePushup])
	assert.Equal(t, 5, best[a][domain.ExerciseSquat])
	assert.Equal(t, 7, best[b][domain.ExercisePushup])
	_, ok := best[b][domain.ExerciseSquat]
	assert.False(t, ok)
}

func TestAggregate_SumAppliesMultipliers(t *testing.T) {
	a := primitive.NewObjectID()
	settings := domain.DefaultMultipliers()
	settings.Pushup = 1.5
	settings.Lsit = 2

	res := NewAggregator().Aggregate([]*domain.ExerciseRecord{
		record(a, "a@x.io", domain.ExercisePushup, 10),
		record(a, "a@x.io", domain.ExerciseLsit, 30),
		record(a, "a@x.io", domain.ExerciseDips, 4),
	}, nil, settings)

	require.Len(t, res.Users, 1)
	sum := res.Users[0].Score(MetricSum)
	assert.InDelta(t, 15.0, sum.PerExercise[domain.ExercisePushup], 1e-9)
	assert.InDelta(t, 60.0, sum.PerExercise[domain.ExerciseLsit], 1e-9)
	assert.InDelta(t, 4.0, sum.PerExercise[domain.ExerciseDips], 1e-9)
	assert.Zero(t, sum.PerExercise[domain.ExerciseSquat])
	assert.InDelta(t, 79.0, sum.Total, 1e-9)
}

func TestAggregate_DirectoryAndRecordOwners(t *testing.T) {
	withProfile, withoutProfile, idle := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	profiles := []*domain.UserProfile{
		{ID: withProfile, UserName: "zed", Email: "zed@x.io"},
		{ID: idle, Email: "idle@x.io"},
	}
	res := NewAggregator().Aggregate([]*domain.ExerciseRecord{
		record(withProfile, "zed@x.io", domain.ExercisePushup, 3),
		record(withoutProfile, "ghost@x.io", domain.ExercisePushup, 4),
	}, profiles, domain.DefaultMultipliers())

	require.Len(t, res.Users, 3)
	users := byUser(res)
	assert.Equal(t, "zed", users[withProfile].UserName)
	assert.Equal(t, "ghost@x.io", users[withoutProfile].UserName)
	assert.Equal(t, "idle@x.io", users[idle].UserName)
	assert.Zero(t, users[idle].Score(MetricSum).Total)

	// sorted by display name
	assert.Equal(t, "ghost@x.io", res.Users[0].UserName)
	assert.Equal(t, "idle@x.io", res.Users[1].UserName)
	assert.Equal(t, "zed", res.Users[2].UserName)
}

func TestDeviation_IdenticalScoresAreFifty(t *testing.T) {
	var records []*domain.ExerciseRecord
	var users []primitive.ObjectID
	for i := 0; i < 4; i++ {
		uid := primitive.NewObjectID()
		users = append(users, uid)
		for _, e := range domain.ExerciseTypes {
			records = append(records, record(uid, "u@x.io", e, 7))
		}
	}
	settings := domain.DefaultMultipliers()
	settings.Squat = 0.1 // rounding must not leak a tiny std dev

	res := NewAggregator().Aggregate(records, nil, settings)
	for _, u := range res.Users {
		dev := u.Score(MetricDeviation)
		for _, e := range domain.ExerciseTypes {
			assert.Equal(t, 50.0, dev.PerExercise[e], e)
		}
		assert.Equal(t, 250.0, dev.Total)
	}
}

func TestDeviation_SingleUserAndMissingRecords(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	res := NewAggregator().Aggregate([]*domain.ExerciseRecord{
		record(a, "a@x.io", domain.ExercisePushup, 12),
		record(b, "b@x.io", domain.ExerciseSquat, 40),
	}, nil, domain.DefaultMultipliers())

	users := byUser(res)
	assert.Equal(t, 50.0, users[a].Score(MetricDeviation).PerExercise[domain.ExercisePushup])
	assert.Equal(t, 0.0, users[a].Score(MetricDeviation).PerExercise[domain.ExerciseSquat])
	assert.Equal(t, 50.0, users[a].Score(MetricDeviation).Total)
	assert.Equal(t, 50.0, users[b].Score(MetricDeviation).Total)
}

func TestDeviation_PopulationStdDev(t *testing.T) {
	a, b, none := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	weighted := Table{
		a:    {domain.ExercisePushup: 10},
		b:    {domain.ExercisePushup: 20},
		none: {},
	}
	out := Deviation{}.Apply([]primitive.ObjectID{a, b, none}, weighted)

	// mean 15, population std 5; the user without a record is excluded
	assert.InDelta(t, 40.0, out[a].PerExercise[domain.ExercisePushup], 1e-9)
	assert.InDelta(t, 60.0, out[b].PerExercise[domain.ExercisePushup], 1e-9)
	assert.Zero(t, out[none].PerExercise[domain.ExercisePushup])
	assert.Zero(t, out[none].Total)
}

func TestPercentage(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	weighted := Table{
		a: {domain.ExercisePushup: 40, domain.ExerciseDips: 3},
		b: {domain.ExercisePushup: 10},
		c: {},
	}
	out := Percentage{}.Apply([]primitive.ObjectID{a, b, c}, weighted)

	assert.Equal(t, 100.0, out[a].PerExercise[domain.ExercisePushup])
	assert.Equal(t, 100.0, out[a].PerExercise[domain.ExerciseDips])
	assert.InDelta(t, 25.0, out[b].PerExercise[domain.ExercisePushup], 1e-9)
	assert.Zero(t, out[b].PerExercise[domain.ExerciseDips])
	assert.InDelta(t, 200.0, out[a].Total, 1e-9)
	assert.Zero(t, out[c].Total)
}

func TestPercentage_TopScorerAlwaysHundred(t *testing.T) {
	settings := domain.DefaultMultipliers()
	settings.Pullup = 0.3
	uids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	values := []int{7, 13, 9}
	var records []*domain.ExerciseRecord
	for i, uid := range uids {
		records = append(records, record(uid, "u@x.io", domain.ExercisePullup, values[i]))
	}

	res := NewAggregator().Aggregate(records, nil, settings)
	assert.Equal(t, 100.0, byUser(res)[uids[1]].Score(MetricPercentage).PerExercise[domain.ExercisePullup])
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricSum, m)

	for _, want := range Metrics {
		got, err := ParseMetric(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		s, err := StrategyFor(got)
		require.NoError(t, err)
		assert.Equal(t, want, s.Metric())
	}

	_, err = ParseMetric("median")
	assert.Error(t, err)
	_, err = StrategyFor("median")
	assert.Error(t, err)
}

func TestMeanStdDev(t *testing.T) {
	mean, std := meanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, mean)
	assert.Equal(t, 2.0, std)

	mean, std = meanStdDev([]float64{0.1, 0.1, 0.1})
	assert.Equal(t, 0.1, mean)
	assert.Zero(t, std)
	assert.False(t, math.IsNaN(std))
}
