package domain

import "github.com/google/uuid"

// Scorer is pure and deterministic: every function here takes its inputs by
// value and performs no I/O. RefCatalog rows are fetched by the caller and
// passed in already resolved.

// EstimatedOneRepMax predicts a single-rep maximum via the Epley formula.
// reps <= 0 or weight <= 0 yields 0; reps == 1 returns weight unchanged.
func EstimatedOneRepMax(weightKg float64, reps int) float64 {
	if reps <= 0 || weightKg <= 0 {
		return 0
	}
	if reps == 1 {
		return weightKg
	}
	return weightKg * (1 + float64(reps)/30)
}

// StrengthToWeightRatio is estimated1RM / bodyweight, or 0 when bodyweight
// is not positive.
func StrengthToWeightRatio(estimated1RM, bodyweightKg float64) float64 {
	if bodyweightKg <= 0 {
		return 0
	}
	return estimated1RM / bodyweightKg
}

// referenceRatio substitutes for SWR on exercise types that aren't scored
// off raw bodyweight-normalized strength (machine / assisted-bw / cardio):
// the estimated 1RM is expressed as a fraction of the exercise's own elite
// benchmark for the lifter's gender, so the resulting score still lands on
// the same 0..~1+ scale the benchmark ladders expect.
func referenceRatio(estimated1RM float64, gender Sex, elite EliteBenchmark) float64 {
	target := elite.Male
	if gender == SexFemale {
		target = elite.Female
	}
	if target <= 0 {
		return 0
	}
	return estimated1RM / target
}

// ScoreInput bundles everything ScoreSet needs for a single set.
type ScoreInput struct {
	WeightKg     float64
	Reps         int
	BodyweightKg float64
	Gender       Sex
	Exercise     Exercise
}

// ScoreSet computes estimated1RM, swr, and the comparable score for one set,
// dispatching on the exercise's type per spec.md §4.2.
func ScoreSet(in ScoreInput) (estimated1RM, swr, score float64) {
	estimated1RM = EstimatedOneRepMax(in.WeightKg, in.Reps)
	swr = StrengthToWeightRatio(estimated1RM, in.BodyweightKg)

	if in.BodyweightKg <= 0 {
		return estimated1RM, swr, 0
	}

	if in.Exercise.Type.UsesBodyweightRatio() {
		score = swr
	} else {
		score = referenceRatio(estimated1RM, in.Gender, in.Exercise.Elite)
	}
	return estimated1RM, swr, score
}

// RankLookupResult is the resolved rank/sub-rank for a score, falling back
// to the lowest known tier when no benchmark or inter-rank row matches
// (spec.md §4.2 edge policy: missing benchmark -> lowest rank/sub-rank).
type RankLookupResult struct {
	RankID      int
	InterRankID int
}

// LookupRankAndSubRank resolves score against the (gender, targetID)
// benchmark ladder, then the inter-rank bands within the chosen rank,
// applying the lowest-tier fallback at each step. targetID is the zero
// UUID for the overall-user ladder.
func LookupRankAndSubRank(score float64, targetID uuid.UUID, gender Sex, benchmarks []Benchmark, ranks []Rank, interRanks []InterRank) RankLookupResult {
	rank, ok := LookupRank(score, targetID, gender, benchmarks, ranks)
	if !ok {
		rank = LowestRank(ranks)
	}

	interRank, ok := LookupInterRank(score, rank.ID, interRanks)
	if !ok {
		interRank = LowestInterRank(rank.ID, interRanks)
	}

	return RankLookupResult{RankID: rank.ID, InterRankID: interRank.ID}
}

// ScoreAndRank runs ScoreSet then resolves the rank/sub-rank in one call,
// producing the ScoredSet the rest of the pipeline operates on. The rank
// lookup is scoped to in.Exercise.ID and in.Gender so a multi-exercise,
// mixed-gender benchmark table never leaks a different target's ladder
// into this set's score.
func ScoreAndRank(set UserSet, in ScoreInput, benchmarks []Benchmark, ranks []Rank, interRanks []InterRank) ScoredSet {
	estimated1RM, swr, score := ScoreSet(in)
	lookup := LookupRankAndSubRank(score, in.Exercise.ID, in.Gender, benchmarks, ranks, interRanks)

	return ScoredSet{
		Set:          set,
		Estimated1RM: estimated1RM,
		SWR:          swr,
		Score:        score,
		RankID:       lookup.RankID,
		InterRankID:  lookup.InterRankID,
	}
}
