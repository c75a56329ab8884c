// internal/domain/exercise.go
package domain

// ExerciseType identifies one of the fixed exercises a record can be logged for.
type ExerciseType string

const (
	ExercisePushup ExerciseType = "pushup"
	ExerciseDips   ExerciseType = "dips"
	ExerciseSquat  ExerciseType = "squat"
	ExerciseLsit   ExerciseType = "Lsit"
	ExercisePullup ExerciseType = "pullup"
)

// ExerciseTypes lists every known exercise in display order.
var ExerciseTypes = []ExerciseType{
	ExercisePushup,
	ExerciseDips,
	ExerciseSquat,
	ExerciseLsit,
	ExercisePullup,
}

// Bounds for submitted values and comments.
const (
	MinRecordValue   = 1
	MaxRecordValue   = 10000
	MaxCommentLength = 500
)

// Valid reports whether e is one of the known exercise types.
func (e ExerciseType) Valid() bool {
	for _, known := range ExerciseTypes {
		if e == known {
			return true
		}
	}
	return false
}

// Unit is the measurement unit of a record value for this exercise.
// The L-sit is held for time, everything else is counted in reps.
func (e ExerciseType) Unit() string {
	if e == ExerciseLsit {
		return "seconds"
	}
	return "reps"
}

// ParseExerciseType converts raw input into a known ExerciseType.
func ParseExerciseType(raw string) (ExerciseType, bool) {
	e := ExerciseType(raw)
	if !e.Valid() {
		return "", false
	}
	return e, true
}
