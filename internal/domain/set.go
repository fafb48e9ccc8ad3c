package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserSet is a single logged performance: real sets come from a finalized
// workout session, synthetic ones are built in-memory for a manual
// calculator entry and must never be persisted past the orchestrator call.
type UserSet struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	Exercise    ExerciseRef
	SetOrder    int
	Reps        int
	WeightKg    float64
	PerformedAt time.Time

	// Synthetic marks a set built in-memory for the manual calculator flow.
	// The orchestrator must never write a row with Synthetic == true.
	Synthetic bool
}

// ScoredSet pairs a UserSet with the Scorer's outputs for it.
type ScoredSet struct {
	Set           UserSet
	Estimated1RM  float64
	SWR           float64
	Score         float64
	RankID        int
	InterRankID   int
}
