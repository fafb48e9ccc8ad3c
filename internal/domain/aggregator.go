package domain

import "github.com/google/uuid"

// AggregatorInput bundles everything RankAggregator needs to run Steps A–D
// of spec.md §4.4 for one pipeline call. Stored* maps hold the user's
// current rows (read by PersistenceGateway before the call); the
// reference slices come from RefCatalog.
type AggregatorInput struct {
	UserID uuid.UUID
	Gender Sex

	// Locked controls the downgrade policy: true (workout finalization)
	// only applies an update when it strictly improves the stored
	// permanent score; false (manual calculator, "unlocked") applies the
	// batch's result even when it does not improve on history.
	Locked bool

	ScoredSets []ScoredSet

	StoredExerciseRanks    map[uuid.UUID]UserExerciseRank
	StoredMuscleRanks      map[uuid.UUID]UserMuscleRank
	StoredMuscleGroupRanks map[uuid.UUID]UserMuscleGroupRank
	StoredUserRank         UserRank

	ExerciseMuscles  []ExerciseMuscle
	Muscles          []Muscle
	MuscleGroups     []MuscleGroup
	ExerciseBenchmarks     []Benchmark
	MuscleBenchmarks       []Benchmark
	MuscleGroupBenchmarks  []Benchmark
	OverallBenchmarks      []Benchmark
	Ranks      []Rank
	InterRanks []InterRank
}

// Aggregate runs Steps A–D and returns the UpdatePayload of every row that
// changed, at every tier, in one pass.
func Aggregate(in AggregatorInput) UpdatePayload {
	payload := UpdatePayload{UserID: in.UserID}

	exerciseScores, exerciseRanks, exerciseUpdates := aggregateExerciseTier(in)
	payload.ExerciseRanks = exerciseRanks
	payload.ExerciseTierUpdates = exerciseUpdates

	muscleScores, touchedMuscles := aggregateMuscleCandidates(in, exerciseScores)
	muscleRanks, muscleUpdates := resolveMuscleTier(in, muscleScores, touchedMuscles)
	payload.MuscleRanks = muscleRanks
	payload.MuscleTierUpdates = muscleUpdates

	effectiveMuscleScores := mergeMuscleScores(in, muscleScores)
	groupScores, touchedGroups := aggregateGroupCandidates(in, effectiveMuscleScores, touchedMuscles)
	groupRanks, groupUpdates := resolveGroupTier(in, groupScores, touchedGroups)
	payload.MuscleGroupRanks = groupRanks
	payload.MuscleGroupTierUpdates = groupUpdates

	effectiveGroupScores := mergeGroupScores(in, groupScores)
	userRank, userUpdate := resolveOverallTier(in, effectiveGroupScores)
	payload.UserRank = userRank
	payload.OverallTierUpdate = userUpdate

	return payload
}

// --- Step A: exercise tier ---

func aggregateExerciseTier(in AggregatorInput) (map[uuid.UUID]float64, []UserExerciseRank, []RankTierUpdate) {
	bestScore := make(map[uuid.UUID]float64)
	bestSetID := make(map[uuid.UUID]uuid.UUID)

	for _, s := range in.ScoredSets {
		if !s.Set.Exercise.Ranked() {
			continue
		}
		id := s.Set.Exercise.ID
		if s.Score > bestScore[id] {
			bestScore[id] = s.Score
			bestSetID[id] = s.Set.ID
		}
	}

	var ranks []UserExerciseRank
	var updates []RankTierUpdate

	for exerciseID, candidate := range bestScore {
		stored, had := in.StoredExerciseRanks[exerciseID]
		if !applies(in.Locked, had, stored.PermanentScore, candidate) {
			continue
		}

		lookup := LookupRankAndSubRank(candidate, exerciseID, in.Gender, in.ExerciseBenchmarks, in.Ranks, in.InterRanks)
		row := UserExerciseRank{
			UserID:            in.UserID,
			ExerciseID:        exerciseID,
			PermanentScore:    maxScore(stored.PermanentScore, candidate, in.Locked),
			LeaderboardScore:  maxScore(stored.LeaderboardScore, candidate, in.Locked),
			RankID:            lookup.RankID,
			InterRankID:       lookup.InterRankID,
			ContributingSetID: bestSetID[exerciseID],
			Locked:            in.Locked,
		}
		ranks = append(ranks, row)

		setID := bestSetID[exerciseID]
		updates = append(updates, RankTierUpdate{
			TargetID:          exerciseID,
			OldScore:          stored.PermanentScore,
			NewScore:          row.PermanentScore,
			OldRankID:         stored.RankID,
			NewRankID:         row.RankID,
			OldInterRankID:    stored.InterRankID,
			NewInterRankID:    row.InterRankID,
			ContributingSetID: &setID,
		})
	}

	return bestScore, ranks, updates
}

// --- Step B: muscle tier ---

// aggregateMuscleCandidates computes, for every muscle touched by this
// batch, candidate(m) = max over touching exercises e of
// new_exercise_score(e) * exercise_muscle_weight(e, m, intensity).
func aggregateMuscleCandidates(in AggregatorInput, exerciseScores map[uuid.UUID]float64) (map[uuid.UUID]float64, map[uuid.UUID]bool) {
	candidate := make(map[uuid.UUID]float64)
	touched := make(map[uuid.UUID]bool)

	for _, em := range in.ExerciseMuscles {
		score, ok := exerciseScores[em.ExerciseID]
		if !ok {
			continue
		}
		weighted := score * em.EffectiveWeight()
		touched[em.MuscleID] = true
		if weighted > candidate[em.MuscleID] {
			candidate[em.MuscleID] = weighted
		}
	}

	return candidate, touched
}

func resolveMuscleTier(in AggregatorInput, candidate map[uuid.UUID]float64, touched map[uuid.UUID]bool) ([]UserMuscleRank, []RankTierUpdate) {
	var ranks []UserMuscleRank
	var updates []RankTierUpdate

	for muscleID := range touched {
		stored, had := in.StoredMuscleRanks[muscleID]
		cand := candidate[muscleID]
		if !applies(in.Locked, had, stored.PermanentScore, cand) {
			continue
		}

		lookup := LookupRankAndSubRank(cand, muscleID, in.Gender, in.MuscleBenchmarks, in.Ranks, in.InterRanks)
		row := UserMuscleRank{
			UserID:           in.UserID,
			MuscleID:         muscleID,
			PermanentScore:   maxScore(stored.PermanentScore, cand, in.Locked),
			LeaderboardScore: maxScore(stored.LeaderboardScore, cand, in.Locked),
			RankID:           lookup.RankID,
			InterRankID:      lookup.InterRankID,
			Locked:           in.Locked,
		}
		ranks = append(ranks, row)

		updates = append(updates, RankTierUpdate{
			TargetID:       muscleID,
			OldScore:       stored.PermanentScore,
			NewScore:       row.PermanentScore,
			OldRankID:      stored.RankID,
			NewRankID:      row.RankID,
			OldInterRankID: stored.InterRankID,
			NewInterRankID: row.InterRankID,
		})
	}

	return ranks, updates
}

// mergeMuscleScores returns the effective post-Step-B score for every
// muscle in the catalog: the new candidate where it beat storage, stored
// otherwise (spec.md §4.4 Step C: "all others from stored state").
func mergeMuscleScores(in AggregatorInput, candidate map[uuid.UUID]float64) map[uuid.UUID]float64 {
	effective := make(map[uuid.UUID]float64, len(in.Muscles))
	for _, m := range in.Muscles {
		stored := in.StoredMuscleRanks[m.ID].PermanentScore
		if cand, ok := candidate[m.ID]; ok && cand > stored {
			effective[m.ID] = cand
		} else {
			effective[m.ID] = stored
		}
	}
	return effective
}

// --- Step C: muscle-group tier ---

func aggregateGroupCandidates(in AggregatorInput, muscleScores map[uuid.UUID]float64, touchedMuscle map[uuid.UUID]bool) (map[uuid.UUID]float64, map[uuid.UUID]bool) {
	candidate := make(map[uuid.UUID]float64)
	touchedGroups := make(map[uuid.UUID]bool)

	for _, m := range in.Muscles {
		score := muscleScores[m.ID]
		candidate[m.MuscleGroupID] += score * m.MuscleGroupWeight
	}

	// A group is "touched" (eligible for a rank update this pass) only if
	// at least one of its muscles was touched by this batch.
	for _, m := range in.Muscles {
		if touchedMuscle[m.ID] {
			touchedGroups[m.MuscleGroupID] = true
		}
	}

	return candidate, touchedGroups
}

func resolveGroupTier(in AggregatorInput, candidate map[uuid.UUID]float64, touched map[uuid.UUID]bool) ([]UserMuscleGroupRank, []RankTierUpdate) {
	var ranks []UserMuscleGroupRank
	var updates []RankTierUpdate

	for groupID := range touched {
		stored, had := in.StoredMuscleGroupRanks[groupID]
		cand := candidate[groupID]
		if !applies(in.Locked, had, stored.PermanentScore, cand) {
			continue
		}

		lookup := LookupRankAndSubRank(cand, groupID, in.Gender, in.MuscleGroupBenchmarks, in.Ranks, in.InterRanks)
		row := UserMuscleGroupRank{
			UserID:           in.UserID,
			MuscleGroupID:    groupID,
			PermanentScore:   maxScore(stored.PermanentScore, cand, in.Locked),
			LeaderboardScore: maxScore(stored.LeaderboardScore, cand, in.Locked),
			RankID:           lookup.RankID,
			InterRankID:      lookup.InterRankID,
			Locked:           in.Locked,
		}
		ranks = append(ranks, row)

		updates = append(updates, RankTierUpdate{
			TargetID:       groupID,
			OldScore:       stored.PermanentScore,
			NewScore:       row.PermanentScore,
			OldRankID:      stored.RankID,
			NewRankID:      row.RankID,
			OldInterRankID: stored.InterRankID,
			NewInterRankID: row.InterRankID,
		})
	}

	return ranks, updates
}

func mergeGroupScores(in AggregatorInput, candidate map[uuid.UUID]float64) map[uuid.UUID]float64 {
	effective := make(map[uuid.UUID]float64, len(in.MuscleGroups))
	for _, g := range in.MuscleGroups {
		stored := in.StoredMuscleGroupRanks[g.ID].PermanentScore
		if cand, ok := candidate[g.ID]; ok && cand > stored {
			effective[g.ID] = cand
		} else {
			effective[g.ID] = stored
		}
	}
	return effective
}

// --- Step D: overall tier ---

func resolveOverallTier(in AggregatorInput, groupScores map[uuid.UUID]float64) (*UserRank, *RankTierUpdate) {
	var candidate float64
	for _, g := range in.MuscleGroups {
		candidate += groupScores[g.ID] * g.OverallWeight
	}

	stored := in.StoredUserRank
	if !applies(in.Locked, true, stored.PermanentScore, candidate) {
		return nil, nil
	}

	lookup := LookupRankAndSubRank(candidate, uuid.UUID{}, in.Gender, in.OverallBenchmarks, in.Ranks, in.InterRanks)
	row := UserRank{
		UserID:           in.UserID,
		PermanentScore:   maxScore(stored.PermanentScore, candidate, in.Locked),
		LeaderboardScore: maxScore(stored.LeaderboardScore, candidate, in.Locked),
		RankID:           lookup.RankID,
		InterRankID:      lookup.InterRankID,
		Locked:           in.Locked,
	}

	update := RankTierUpdate{
		TargetID:       uuid.UUID{},
		OldScore:       stored.PermanentScore,
		NewScore:       row.PermanentScore,
		OldRankID:      stored.RankID,
		NewRankID:      row.RankID,
		OldInterRankID: stored.InterRankID,
		NewInterRankID: row.InterRankID,
	}

	return &row, &update
}

// --- shared helpers ---

// applies decides whether a candidate score produces a row update, given
// the locking policy: unlocked batches (manual calculator) always apply;
// locked batches (workout finalization) apply only on strict improvement
// over the stored permanent score, and always apply when there is no
// stored row yet.
func applies(locked bool, hadStored bool, storedScore, candidate float64) bool {
	if !locked {
		return true
	}
	if !hadStored {
		return true
	}
	return candidate > storedScore
}

// maxScore returns the value a tier's score channel should hold after this
// pass: unlocked updates always adopt the candidate (locked=false is the
// manual-calculator "unlocked recalculation" path, which applies even when
// candidate is worse than history); locked updates keep the best of stored
// and candidate, which — combined with applies() gating locked writes to
// strict improvements — makes the permanent channel monotone non-decreasing.
func maxScore(stored, candidate float64, locked bool) float64 {
	if !locked {
		return candidate
	}
	if candidate > stored {
		return candidate
	}
	return stored
}
