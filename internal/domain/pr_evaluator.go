package domain

import "github.com/google/uuid"

// EvaluateCandidatePRs classifies a batch of scored sets against the user's
// stored PRs and returns only the rows that strictly improve on what's
// stored — the evaluator never writes, it just decides what the
// PersistenceGateway must upsert. running is seeded from existing and
// updated as each set is accepted, so within one batch the best set wins
// regardless of order: a second set on the same exercise is compared
// against the first set's accepted PR, not the original stored snapshot.
func EvaluateCandidatePRs(userID uuid.UUID, existing map[PRKey]UserExercisePR, sets []ScoredSet, bodyweightKg float64) []UserExercisePR {
	running := make(map[PRKey]UserExercisePR, len(existing))
	for k, v := range existing {
		running[k] = v
	}

	byKey := make(map[PRKey]UserExercisePR)

	for _, s := range sets {
		if !s.Set.Exercise.Ranked() {
			continue
		}
		exerciseID := s.Set.Exercise.ID

		if u, ok := evaluateOneRepMax(running, exerciseID, s, bodyweightKg); ok {
			u.UserID = userID
			key := PRKey{ExerciseID: exerciseID, Type: PRTypeOneRepMax}
			running[key] = u
			byKey[key] = u
		}
		if u, ok := evaluateMaxReps(running, exerciseID, s, bodyweightKg); ok {
			u.UserID = userID
			key := PRKey{ExerciseID: exerciseID, Type: PRTypeMaxReps}
			running[key] = u
			byKey[key] = u
		}
		if u, ok := evaluateMaxSWR(running, exerciseID, s, bodyweightKg); ok {
			u.UserID = userID
			key := PRKey{ExerciseID: exerciseID, Type: PRTypeMaxSWR}
			running[key] = u
			byKey[key] = u
		}
	}

	updates := make([]UserExercisePR, 0, len(byKey))
	for _, u := range byKey {
		updates = append(updates, u)
	}
	return updates
}

func evaluateOneRepMax(existing map[PRKey]UserExercisePR, exerciseID uuid.UUID, s ScoredSet, bodyweightKg float64) (UserExercisePR, bool) {
	key := PRKey{ExerciseID: exerciseID, Type: PRTypeOneRepMax}
	prior, had := existing[key]
	if s.Estimated1RM <= 0 || (had && s.Estimated1RM <= prior.Value) {
		return UserExercisePR{}, false
	}
	return UserExercisePR{
		ExerciseID:     exerciseID,
		Type:           PRTypeOneRepMax,
		Value:          s.Estimated1RM,
		BodyweightKg:   bodyweightKg,
		SourceWeightKg: s.Set.WeightKg,
		SourceSetID:    s.Set.ID,
		AchievedAt:     s.Set.PerformedAt,
	}, true
}

// evaluateMaxReps implements the max_reps rule: reps must be achieved at a
// weight at or above the stored PR's own weight (spec.md §9, resolved — see
// DESIGN.md). A lifter with no stored max_reps PR yet clears this bar at
// any weight.
func evaluateMaxReps(existing map[PRKey]UserExercisePR, exerciseID uuid.UUID, s ScoredSet, bodyweightKg float64) (UserExercisePR, bool) {
	if s.Set.Reps <= 0 {
		return UserExercisePR{}, false
	}

	key := PRKey{ExerciseID: exerciseID, Type: PRTypeMaxReps}
	prior, had := existing[key]
	if had {
		if s.Set.WeightKg < prior.SourceWeightKg {
			return UserExercisePR{}, false
		}
		if float64(s.Set.Reps) <= prior.Value {
			return UserExercisePR{}, false
		}
	}

	return UserExercisePR{
		ExerciseID:     exerciseID,
		Type:           PRTypeMaxReps,
		Value:          float64(s.Set.Reps),
		BodyweightKg:   bodyweightKg,
		SourceWeightKg: s.Set.WeightKg,
		SourceSetID:    s.Set.ID,
		AchievedAt:     s.Set.PerformedAt,
	}, true
}

func evaluateMaxSWR(existing map[PRKey]UserExercisePR, exerciseID uuid.UUID, s ScoredSet, bodyweightKg float64) (UserExercisePR, bool) {
	key := PRKey{ExerciseID: exerciseID, Type: PRTypeMaxSWR}
	prior, had := existing[key]
	if s.SWR <= 0 || (had && s.SWR <= prior.Value) {
		return UserExercisePR{}, false
	}
	return UserExercisePR{
		ExerciseID:     exerciseID,
		Type:           PRTypeMaxSWR,
		Value:          s.SWR,
		BodyweightKg:   bodyweightKg,
		SourceWeightKg: s.Set.WeightKg,
		SourceSetID:    s.Set.ID,
		AchievedAt:     s.Set.PerformedAt,
	}, true
}
