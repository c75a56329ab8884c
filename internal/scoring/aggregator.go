// Package scoring derives best records, weighted scores and their normalized views.
package scoring

import (
	"sort"
	"time"

	"alcyxob/growrep/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BestPerExercise reduces records to the highest value per user and exercise.
// Ties keep the value already stored.
func BestPerExercise(records []*domain.ExerciseRecord) map[primitive.ObjectID]map[domain.ExerciseType]int {
	best := make(map[primitive.ObjectID]map[domain.ExerciseType]int)
	for _, r := range records {
		if r == nil {
			continue
		}
		perUser, ok := best[r.UserID]
		if !ok {
			perUser = make(map[domain.ExerciseType]int, len(domain.ExerciseTypes))
			best[r.UserID] = perUser
		}
		if cur, ok := perUser[r.ExerciseType]; !ok || r.Value > cur {
			perUser[r.ExerciseType] = r.Value
		}
	}
	return best
}

// UserResult is one user's row in an aggregation.
type UserResult struct {
	UserID   primitive.ObjectID          `json:"userId"`
	UserName string                      `json:"userName"`
	Email    string                      `json:"email"`
	Best     map[domain.ExerciseType]int `json:"best"`
	Scores   map[Metric]Breakdown        `json:"scores"`
}

// Result is a complete aggregation for one mode.
type Result struct {
	Users       []UserResult              `json:"users"`
	Multipliers domain.MultiplierSettings `json:"multipliers"`
	ComputedAt  time.Time                 `json:"computedAt"`
}

// Score returns the user's breakdown for m.
func (u UserResult) Score(m Metric) Breakdown {
	return u.Scores[m]
}

// Aggregator computes Results with a fixed set of strategies.
type Aggregator struct {
	strategies []Strategy
	now        func() time.Time
}

// NewAggregator uses DefaultStrategies when none are given.
func NewAggregator(strategies ...Strategy) *Aggregator {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Aggregator{strategies: strategies, now: time.Now}
}

// Aggregate is a pure function of its inputs apart from ComputedAt.
// Users are the directory plus anyone who owns a record; users with a record
// but no profile are named by the email on their records.
func (a *Aggregator) Aggregate(records []*domain.ExerciseRecord, profiles []*domain.UserProfile, settings domain.MultiplierSettings) *Result {
	best := BestPerExercise(records)

	type identity struct{ name, email string }
	known := make(map[primitive.ObjectID]identity, len(profiles))
	var users []primitive.ObjectID
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if _, dup := known[p.ID]; dup {
			continue
		}
		known[p.ID] = identity{name: p.DisplayName(), email: p.Email}
		users = append(users, p.ID)
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		if _, ok := known[r.UserID]; !ok {
			known[r.UserID] = identity{name: r.UserEmail, email: r.UserEmail}
			users = append(users, r.UserID)
		}
	}

	weighted := make(Table, len(users))
	for _, uid := range users {
		row := make(map[domain.ExerciseType]float64, len(domain.ExerciseTypes))
		for _, e := range domain.ExerciseTypes {
			row[e] = float64(best[uid][e]) * settings.For(e)
		}
		weighted[uid] = row
	}

	byMetric := make(map[Metric]map[primitive.ObjectID]Breakdown, len(a.strategies))
	for _, s := range a.strategies {
		byMetric[s.Metric()] = s.Apply(users, weighted)
	}

	out := &Result{
		Users:       make([]UserResult, 0, len(users)),
		Multipliers: settings,
		ComputedAt:  a.now(),
	}
	for _, uid := range users {
		id := known[uid]
		row := UserResult{
			UserID:   uid,
			UserName: id.name,
			Email:    id.email,
			Best:     make(map[domain.ExerciseType]int, len(domain.ExerciseTypes)),
			Scores:   make(map[Metric]Breakdown, len(byMetric)),
		}
		for _, e := range domain.ExerciseTypes {
			row.Best[e] = best[uid][e]
		}
		for m, scores := range byMetric {
			row.Scores[m] = scores[uid]
		}
		out.Users = append(out.Users, row)
	}

	sort.SliceStable(out.Users, func(i, j int) bool {
		if out.Users[i].UserName != out.Users[j].UserName {
			return out.Users[i].UserName < out.Users[j].UserName
		}
		return out.Users[i].UserID.Hex() < out.Users[j].UserID.Hex()
	})
	return out
}
