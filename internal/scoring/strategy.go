package scoring

import (
	"fmt"
	"math"

	"alcyxob/growrep/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Metric names a normalization of weighted scores.
type Metric string

const (
	MetricSum        Metric = "sum"
	MetricDeviation  Metric = "deviation"
	MetricPercentage Metric = "percentage"
)

// Metrics lists the supported metrics in display order.
var Metrics = []Metric{MetricSum, MetricDeviation, MetricPercentage}

// ParseMetric converts raw input into a Metric. Empty input selects MetricSum.
func ParseMetric(raw string) (Metric, error) {
	if raw == "" {
		return MetricSum, nil
	}
	for _, m := range Metrics {
		if Metric(raw) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", raw)
}

// Table holds weighted scores (best value times multiplier) per user and exercise.
// A user without a record for an exercise has no entry or a zero entry.
type Table map[primitive.ObjectID]map[domain.ExerciseType]float64

// Breakdown is one user's normalized score per exercise plus their sum.
type Breakdown struct {
	PerExercise map[domain.ExerciseType]float64 `json:"perExercise"`
	Total       float64                         `json:"total"`
}

// Strategy turns a table of weighted scores into per-user breakdowns.
// Every user in users gets a breakdown covering every exercise type.
type Strategy interface {
	Metric() Metric
	Apply(users []primitive.ObjectID, weighted Table) map[primitive.ObjectID]Breakdown
}

// StrategyFor returns the strategy computing m.
func StrategyFor(m Metric) (Strategy, error) {
	switch m {
	case MetricSum:
		return Sum{}, nil
	case MetricDeviation:
		return Deviation{}, nil
	case MetricPercentage:
		return Percentage{}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", m)
	}
}

// DefaultStrategies returns one strategy per metric.
func DefaultStrategies() []Strategy {
	return []Strategy{Sum{}, Deviation{}, Percentage{}}
}

// Sum reports the weighted scores as they are.
type Sum struct{}

func (Sum) Metric() Metric { return MetricSum }

func (Sum) Apply(users []primitive.ObjectID, weighted Table) map[primitive.ObjectID]Breakdown {
	return perUser(users, func(uid primitive.ObjectID, e domain.ExerciseType) float64 {
		return weighted[uid][e]
	})
}

// Deviation maps each exercise's scores onto mean 50 and 10 points per
// population standard deviation. Only users with a positive score take part
// in the statistics; the rest score 0 for that exercise.
type Deviation struct{}

func (Deviation) Metric() Metric { return MetricDeviation }

func (Deviation) Apply(users []primitive.ObjectID, weighted Table) map[primitive.ObjectID]Breakdown {
	type stats struct{ mean, std float64 }
	per := make(map[domain.ExerciseType]stats, len(domain.ExerciseTypes))

	for _, e := range domain.ExerciseTypes {
		var values []float64
		for _, uid := range users {
			if v := weighted[uid][e]; v > 0 {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		mean, std := meanStdDev(values)
		per[e] = stats{mean: mean, std: std}
	}

	return perUser(users, func(uid primitive.ObjectID, e domain.ExerciseType) float64 {
		v := weighted[uid][e]
		if v <= 0 {
			return 0
		}
		s := per[e]
		if s.std == 0 {
			return 50
		}
		return 50 + 10*(v-s.mean)/s.std
	})
}

// Percentage expresses each score as a share of the exercise's best score.
type Percentage struct{}

func (Percentage) Metric() Metric { return MetricPercentage }

func (Percentage) Apply(users []primitive.ObjectID, weighted Table) map[primitive.ObjectID]Breakdown {
	top := make(map[domain.ExerciseType]float64, len(domain.ExerciseTypes))
	for _, uid := range users {
		for _, e := range domain.ExerciseTypes {
			if v := weighted[uid][e]; v > top[e] {
				top[e] = v
			}
		}
	}

	return perUser(users, func(uid primitive.ObjectID, e domain.ExerciseType) float64 {
		v := weighted[uid][e]
		if v <= 0 || top[e] <= 0 {
			return 0
		}
		if v == top[e] {
			return 100
		}
		return 100 * v / top[e]
	})
}

func perUser(users []primitive.ObjectID, score func(primitive.ObjectID, domain.ExerciseType) float64) map[primitive.ObjectID]Breakdown {
	out := make(map[primitive.ObjectID]Breakdown, len(users))
	for _, uid := range users {
		b := Breakdown{PerExercise: make(map[domain.ExerciseType]float64, len(domain.ExerciseTypes))}
		for _, e := range domain.ExerciseTypes {
			v := roundScore(score(uid, e))
			b.PerExercise[e] = v
			b.Total += v
		}
		b.Total = roundScore(b.Total)
		out[uid] = b
	}
	return out
}

// scorePrecision is the granularity normalized scores are reported at, so
// totals built from the same values in a different order compare equal.
const scorePrecision = 1e6

func roundScore(v float64) float64 {
	return math.Round(v*scorePrecision) / scorePrecision
}

// meanStdDev uses the population formula (divide by n). Identical values
// report a standard deviation of exactly zero regardless of rounding.
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	same := true
	for _, v := range values {
		sum += v
		if v != values[0] {
			same = false
		}
	}
	if same {
		return values[0], 0
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
