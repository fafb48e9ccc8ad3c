package domain

import (
	"time"

	"github.com/google/uuid"
)

// PRType identifies which personal-record metric a row tracks.
type PRType string

const (
	PRTypeOneRepMax PRType = "one_rep_max"
	PRTypeMaxReps   PRType = "max_reps"
	PRTypeMaxSWR    PRType = "max_swr"
)

// PRKey identifies a personal-record row within one user's existing-PR map:
// one per (exercise, type). The map itself is always already scoped to a
// single user (loaded by PersistenceGateway for one userID, evaluated by
// EvaluateCandidatePRs for one userID), so PRKey carries no UserID field —
// including one here previously meant every lookup in pr_evaluator.go,
// which never set it, missed every row the gateway loaded with it set.
type PRKey struct {
	ExerciseID uuid.UUID
	Type       PRType
}

// UserExercisePR is a personal-record row. Replace-iff-better: a new value
// overwrites the stored one only on strict improvement per PRType's order.
//
// SourceWeightKg is the weight the record was achieved at. For one_rep_max
// and max_swr it is informational; for max_reps it is load-bearing, since a
// new rep count only counts as a PR when achieved at a weight at or above
// the weight the stored max_reps PR was set at (spec.md §9 open question).
type UserExercisePR struct {
	UserID         uuid.UUID
	ExerciseID     uuid.UUID
	Type           PRType
	Value          float64
	BodyweightKg   float64
	SourceWeightKg float64
	SourceSetID    uuid.UUID
	AchievedAt     time.Time
}
