package domain

import "github.com/google/uuid"

// ExerciseType determines which branch the Scorer uses to turn a set into a
// comparable score, and which benchmark ladder it is looked up against.
type ExerciseType string

const (
	ExerciseTypeBarbell      ExerciseType = "barbell"
	ExerciseTypeFreeWeights  ExerciseType = "free-weights"
	ExerciseTypeBodyWeight   ExerciseType = "body-weight"
	ExerciseTypeWeightedBW   ExerciseType = "weighted-bw"
	ExerciseTypeAssistedBW   ExerciseType = "assisted-bw"
	ExerciseTypeCalisthenics ExerciseType = "calisthenics"
	ExerciseTypeMachine      ExerciseType = "machine"
	ExerciseTypeCardio       ExerciseType = "cardio"
	ExerciseTypeNA           ExerciseType = "N/A"
)

// ValidExerciseTypes contains all recognized exercise type values.
var ValidExerciseTypes = map[ExerciseType]bool{
	ExerciseTypeBarbell:      true,
	ExerciseTypeFreeWeights:  true,
	ExerciseTypeBodyWeight:   true,
	ExerciseTypeWeightedBW:   true,
	ExerciseTypeAssistedBW:   true,
	ExerciseTypeCalisthenics: true,
	ExerciseTypeMachine:      true,
	ExerciseTypeCardio:       true,
	ExerciseTypeNA:           true,
}

// UsesBodyweightRatio reports whether this exercise type scores directly off
// the bodyweight-normalized SWR, as opposed to a reference-ratio substitute.
func (t ExerciseType) UsesBodyweightRatio() bool {
	switch t {
	case ExerciseTypeBarbell, ExerciseTypeFreeWeights, ExerciseTypeBodyWeight, ExerciseTypeCalisthenics, ExerciseTypeWeightedBW:
		return true
	default:
		return false
	}
}

// EliteBenchmark holds the elite one-rep-max reference used to build a
// reference ratio for exercise types that don't score off raw SWR.
type EliteBenchmark struct {
	Male   float64
	Female float64
}

// Exercise is an immutable reference row describing a trainable movement.
type Exercise struct {
	ID        uuid.UUID
	Name      string
	Type      ExerciseType
	Bilateral bool
	Elite     EliteBenchmark
}

// ExerciseRefKind discriminates the two possible sources of an exercise
// reference on a logged set.
type ExerciseRefKind string

const (
	ExerciseRefStandard ExerciseRefKind = "standard"
	ExerciseRefCustom   ExerciseRefKind = "custom"
)

// ExerciseRef is the tagged union `Standard(id) | Custom(id)` from the data
// model: a set stores exactly one kind, and only Standard refs participate
// in ranking — custom exercises are excluded from exercise-muscle and
// benchmark lookups.
type ExerciseRef struct {
	Kind ExerciseRefKind
	ID   uuid.UUID
}

// Ranked reports whether this reference participates in the ranking
// pipeline (only standard, catalog exercises do).
func (r ExerciseRef) Ranked() bool {
	return r.Kind == ExerciseRefStandard
}

// StandardExerciseRef builds a ref into the shared exercise catalog.
func StandardExerciseRef(id uuid.UUID) ExerciseRef {
	return ExerciseRef{Kind: ExerciseRefStandard, ID: id}
}

// CustomExerciseRef builds a ref to a user-defined exercise, excluded from
// ranking.
func CustomExerciseRef(id uuid.UUID) ExerciseRef {
	return ExerciseRef{Kind: ExerciseRefCustom, ID: id}
}

// MuscleGroup is an immutable top-level grouping of muscles (e.g. "Chest").
type MuscleGroup struct {
	ID            uuid.UUID
	Name          string
	OverallWeight float64 // (0,1], weight of this group in the overall user score
}

// Muscle is an immutable leaf entity belonging to exactly one MuscleGroup.
type Muscle struct {
	ID                uuid.UUID
	Name              string
	MuscleGroupID     uuid.UUID
	MuscleGroupWeight float64 // (0,1], this muscle's weight within its group
}

// Intensity is how hard an exercise trains a given muscle.
type Intensity string

const (
	IntensityPrimary   Intensity = "primary"
	IntensitySecondary Intensity = "secondary"
	IntensityAccessory Intensity = "accessory"
)

// IntensityWeights maps intensity to the multiplier used when combining an
// exercise's score into a muscle's candidate score (spec.md §4.4 Step B).
var IntensityWeights = map[Intensity]float64{
	IntensityPrimary:   1.0,
	IntensitySecondary: 0.5,
	IntensityAccessory: 0.25,
}

// ExerciseMuscle is a many-to-many row pairing an exercise with a muscle it
// trains, weighted by intensity.
type ExerciseMuscle struct {
	ExerciseID           uuid.UUID
	MuscleID             uuid.UUID
	Intensity            Intensity
	ExerciseMuscleWeight float64
}

// EffectiveWeight returns ExerciseMuscleWeight scaled by the intensity
// multiplier, the combined weight Step B applies to a new exercise score.
func (em ExerciseMuscle) EffectiveWeight() float64 {
	return em.ExerciseMuscleWeight * IntensityWeights[em.Intensity]
}
