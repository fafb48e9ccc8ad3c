package domain

import "github.com/google/uuid"

// UserExerciseRank is the single row per (user, exercise): exactly one per
// pair, updated only when the new score beats the stored one or the update
// is explicitly unlocked (manual-calculator recalculation).
type UserExerciseRank struct {
	UserID                 uuid.UUID
	ExerciseID             uuid.UUID
	PermanentScore         float64
	LeaderboardScore       float64
	RankID                 int
	InterRankID            int
	ContributingSetID      uuid.UUID
	Locked                 bool
}

// UserMuscleRank is the single row per (user, muscle).
type UserMuscleRank struct {
	UserID           uuid.UUID
	MuscleID         uuid.UUID
	PermanentScore   float64
	LeaderboardScore float64
	RankID           int
	InterRankID      int
	Locked           bool
}

// UserMuscleGroupRank is the single row per (user, muscle group).
type UserMuscleGroupRank struct {
	UserID           uuid.UUID
	MuscleGroupID    uuid.UUID
	PermanentScore   float64
	LeaderboardScore float64
	RankID           int
	InterRankID      int
	Locked           bool
}

// UserRank is the single overall-score row per user.
type UserRank struct {
	UserID           uuid.UUID
	PermanentScore   float64
	LeaderboardScore float64
	RankID           int
	InterRankID      int
	Locked           bool
}

// RankTierUpdate is one changed row at any tier, independent of which tier
// it came from — the shape spec.md §6 names for rankUpdatePayload entries.
type RankTierUpdate struct {
	TargetID       uuid.UUID // exercise / muscle / muscle-group id; zero UUID for overall
	OldScore       float64
	NewScore       float64
	OldRankID      int
	NewRankID      int
	OldInterRankID int
	NewInterRankID int
	ContributingSetID *uuid.UUID // only set for exercise-tier updates
}

// RankUp reports whether this update strictly improved the rank tier
// (sub-rank-only changes are not rank-ups).
func (u RankTierUpdate) RankUp() bool {
	return u.NewRankID > u.OldRankID
}
