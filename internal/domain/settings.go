package domain

import "time"

const (
	// DefaultMultiplier applies to every exercise without a stored setting.
	DefaultMultiplier = 1.0
	// MinMultiplier is the smallest weight an admin may store.
	MinMultiplier = 0.1
)

// MultiplierSettings weights raw best records into scores. One document exists per mode.
type MultiplierSettings struct {
	Pushup    float64   `bson:"pushup" json:"pushup"`
	Dips      float64   `bson:"dips" json:"dips"`
	Squat     float64   `bson:"squat" json:"squat"`
	Lsit      float64   `bson:"Lsit" json:"Lsit"`
	Pullup    float64   `bson:"pullup" json:"pullup"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DefaultMultipliers returns settings with every exercise weighted 1.0.
func DefaultMultipliers() MultiplierSettings {
	return MultiplierSettings{
		Pushup: DefaultMultiplier,
		Dips:   DefaultMultiplier,
		Squat:  DefaultMultiplier,
		Lsit:   DefaultMultiplier,
		Pullup: DefaultMultiplier,
	}
}

// For returns the multiplier of e. Unset (zero) values read as the default.
func (m MultiplierSettings) For(e ExerciseType) float64 {
	var v float64
	switch e {
	case ExercisePushup:
		v = m.Pushup
	case ExerciseDips:
		v = m.Dips
	case ExerciseSquat:
		v = m.Squat
	case ExerciseLsit:
		v = m.Lsit
	case ExercisePullup:
		v = m.Pullup
	}
	if v <= 0 {
		return DefaultMultiplier
	}
	return v
}

// Set stores v as the multiplier of e. Unknown exercise types are ignored.
func (m *MultiplierSettings) Set(e ExerciseType, v float64) {
	switch e {
	case ExercisePushup:
		m.Pushup = v
	case ExerciseDips:
		m.Dips = v
	case ExerciseSquat:
		m.Squat = v
	case ExerciseLsit:
		m.Lsit = v
	case ExercisePullup:
		m.Pullup = v
	}
}

// AsMap returns the effective multiplier of every exercise.
func (m MultiplierSettings) AsMap() map[ExerciseType]float64 {
	out := make(map[ExerciseType]float64, len(ExerciseTypes))
	for _, e := range ExerciseTypes {
		out[e] = m.For(e)
	}
	return out
}
