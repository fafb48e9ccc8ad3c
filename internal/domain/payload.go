package domain

import "github.com/google/uuid"

// UpdatePayload is the RankAggregator's output: every row that changed
// across the four tiers, ready for a single bulk PersistenceGateway write.
type UpdatePayload struct {
	UserID           uuid.UUID
	ExerciseRanks    []UserExerciseRank
	MuscleRanks      []UserMuscleRank
	MuscleGroupRanks []UserMuscleGroupRank
	UserRank         *UserRank

	ExerciseTierUpdates    []RankTierUpdate
	MuscleTierUpdates      []RankTierUpdate
	MuscleGroupTierUpdates []RankTierUpdate
	OverallTierUpdate      *RankTierUpdate
}

// ProgressionSummary is the UI-facing digest of what changed, named
// `rankUpData`/`summary` in spec.md §6.
type ProgressionSummary struct {
	AnyRankUp             bool
	OverallRankUp         bool
	MuscleGroupRankUpCount int
	MuscleRankUpCount     int
}

// Summarize derives a ProgressionSummary from an UpdatePayload's tier
// updates.
func Summarize(payload UpdatePayload) ProgressionSummary {
	var s ProgressionSummary

	for _, u := range payload.ExerciseTierUpdates {
		if u.RankUp() {
			s.AnyRankUp = true
		}
	}
	for _, u := range payload.MuscleTierUpdates {
		if u.RankUp() {
			s.AnyRankUp = true
			s.MuscleRankUpCount++
		}
	}
	for _, u := range payload.MuscleGroupTierUpdates {
		if u.RankUp() {
			s.AnyRankUp = true
			s.MuscleGroupRankUpCount++
		}
	}
	if payload.OverallTierUpdate != nil && payload.OverallTierUpdate.RankUp() {
		s.AnyRankUp = true
		s.OverallRankUp = true
	}

	return s
}

// RankingResults is the orchestrator's return value for both entry flows.
type RankingResults struct {
	Payload  UpdatePayload
	NewPRs   []UserExercisePR
	Summary  ProgressionSummary
}
