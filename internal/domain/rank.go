package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Sex gates which benchmark ladder a lookup uses.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// BenchmarkTargetKind identifies which tier a Benchmark row ladders.
type BenchmarkTargetKind string

const (
	BenchmarkTargetExercise    BenchmarkTargetKind = "exercise"
	BenchmarkTargetMuscle      BenchmarkTargetKind = "muscle"
	BenchmarkTargetMuscleGroup BenchmarkTargetKind = "muscle_group"
	BenchmarkTargetOverall     BenchmarkTargetKind = "overall"
)

// Rank is a discrete strength tier. RankID increases monotonically with
// strength (e.g. F < E < D < C < B < A < S < Elite).
type Rank struct {
	ID       int
	Name     string
	MinScore float64
	MaxScore float64
}

// InterRank is an ordered sub-division within a Rank. Bands within one rank
// form a disjoint covering of that rank's score range.
type InterRank struct {
	ID        int
	RankID    int
	MinScore  float64
	MaxScore  float64
	SortOrder int
}

// Benchmark ladders a (gender, target) pair to a rank: the highest
// min_threshold a score crosses wins.
type Benchmark struct {
	Gender      Sex
	TargetKind  BenchmarkTargetKind
	TargetID    uuid.UUID // zero UUID for the overall-user ladder
	MinThreshold float64
	RankID      int
}

// LookupRank returns the rank of the first benchmark (restricted to
// targetID and gender, ordered descending by MinThreshold) whose threshold
// the score meets or exceeds. Ties at a threshold resolve in favor of that
// (higher) rank because the scan walks thresholds from highest to lowest and
// stops at the first one <= score. A caller with no matching benchmarks
// should treat the result as the lowest known rank (spec.md §4.2 edge
// policy); this function returns (Rank{}, false) in that case and leaves
// the fallback to the caller, which has access to the full Rank table to
// pick the true lowest rank.
func LookupRank(score float64, targetID uuid.UUID, gender Sex, benchmarks []Benchmark, ranks []Rank) (Rank, bool) {
	var scoped []Benchmark
	for _, b := range benchmarks {
		if b.TargetID == targetID && b.Gender == gender {
			scoped = append(scoped, b)
		}
	}
	sort.Slice(scoped, func(i, j int) bool {
		return scoped[i].MinThreshold > scoped[j].MinThreshold
	})

	for _, b := range scoped {
		if score >= b.MinThreshold {
			return rankByID(ranks, b.RankID)
		}
	}
	return Rank{}, false
}

func rankByID(ranks []Rank, id int) (Rank, bool) {
	for _, r := range ranks {
		if r.ID == id {
			return r, true
		}
	}
	return Rank{}, false
}

// LowestRank returns the rank with the smallest RankID, used as the edge-
// policy fallback when no benchmark row matches.
func LowestRank(ranks []Rank) Rank {
	lowest := Rank{ID: int(^uint(0) >> 1)} // max int, replaced on first iteration
	found := false
	for _, r := range ranks {
		if !found || r.ID < lowest.ID {
			lowest = r
			found = true
		}
	}
	return lowest
}

// LowestInterRank returns the lowest sort-order sub-rank within a rank, used
// as the edge-policy fallback when no inter-rank band matches.
func LowestInterRank(rankID int, interRanks []InterRank) InterRank {
	var lowest InterRank
	found := false
	for _, ir := range interRanks {
		if ir.RankID != rankID {
			continue
		}
		if !found || ir.SortOrder < lowest.SortOrder {
			lowest = ir
			found = true
		}
	}
	return lowest
}

// LookupInterRank returns the unique inter-rank band (restricted to rankID)
// containing score. A score exactly on a boundary resolves to the higher
// band: bands are scanned in descending SortOrder and the first one whose
// MinScore the score meets or exceeds wins.
func LookupInterRank(score float64, rankID int, interRanks []InterRank) (InterRank, bool) {
	var candidates []InterRank
	for _, ir := range interRanks {
		if ir.RankID == rankID {
			candidates = append(candidates, ir)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].SortOrder > candidates[j].SortOrder
	})
	for _, ir := range candidates {
		if score >= ir.MinScore {
			return ir, true
		}
	}
	return InterRank{}, false
}
