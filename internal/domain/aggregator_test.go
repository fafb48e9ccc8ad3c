package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type AggregatorSuite struct {
	suite.Suite

	userID      uuid.UUID
	exerciseID  uuid.UUID
	muscleID    uuid.UUID
	otherMuscle uuid.UUID
	groupID     uuid.UUID

	ranks      []Rank
	interRanks []InterRank
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.userID = uuid.New()
	s.exerciseID = uuid.New()
	s.muscleID = uuid.New()
	s.otherMuscle = uuid.New()
	s.groupID = uuid.New()

	s.ranks = []Rank{
		{ID: 1, Name: "F", MinScore: 0, MaxScore: 1},
		{ID: 2, Name: "D", MinScore: 1, MaxScore: 2},
	}
	s.interRanks = nil
}

func (s *AggregatorSuite) baseInput() AggregatorInput {
	return AggregatorInput{
		UserID: s.userID,
		Gender: SexMale,
		Locked: true,
		Muscles: []Muscle{
			{ID: s.muscleID, MuscleGroupID: s.groupID, MuscleGroupWeight: 0.6},
			{ID: s.otherMuscle, MuscleGroupID: s.groupID, MuscleGroupWeight: 0.4},
		},
		MuscleGroups: []MuscleGroup{
			{ID: s.groupID, OverallWeight: 1.0},
		},
		ExerciseMuscles: []ExerciseMuscle{
			{ExerciseID: s.exerciseID, MuscleID: s.muscleID, Intensity: IntensityPrimary, ExerciseMuscleWeight: 1.0},
		},
		StoredExerciseRanks:    map[uuid.UUID]UserExerciseRank{},
		StoredMuscleRanks:      map[uuid.UUID]UserMuscleRank{},
		StoredMuscleGroupRanks: map[uuid.UUID]UserMuscleGroupRank{},
		Ranks:                  s.ranks,
		InterRanks:             s.interRanks,
	}
}

func (s *AggregatorSuite) scoredSet(score float64) ScoredSet {
	return ScoredSet{
		Set: UserSet{
			ID:       uuid.New(),
			Exercise: StandardExerciseRef(s.exerciseID),
		},
		Score: score,
	}
}

func (s *AggregatorSuite) TestAggregate_FirstPassAlwaysApplies() {
	in := s.baseInput()
	in.ScoredSets = []ScoredSet{s.scoredSet(1.5)}

	payload := Aggregate(in)

	s.Require().Len(payload.ExerciseRanks, 1)
	s.Equal(1.5, payload.ExerciseRanks[0].PermanentScore)
	s.Require().Len(payload.MuscleRanks, 1)
	s.Equal(1.5, payload.MuscleRanks[0].PermanentScore) // weight 1.0 * intensity 1.0
	s.Require().NotNil(payload.UserRank)
	s.InDelta(1.5*0.6, payload.UserRank.PermanentScore, 0.0001) // 60% of group, group weight 1.0
}

func (s *AggregatorSuite) TestAggregate_LockedWorseScoreDoesNotDowngrade() {
	in := s.baseInput()
	in.StoredExerciseRanks[s.exerciseID] = UserExerciseRank{
		UserID: s.userID, ExerciseID: s.exerciseID, PermanentScore: 2.0, RankID: 2,
	}
	in.ScoredSets = []ScoredSet{s.scoredSet(1.0)}

	payload := Aggregate(in)
	s.Empty(payload.ExerciseRanks)
}

func (s *AggregatorSuite) TestAggregate_LockedBetterScoreUpgrades() {
	in := s.baseInput()
	in.StoredExerciseRanks[s.exerciseID] = UserExerciseRank{
		UserID: s.userID, ExerciseID: s.exerciseID, PermanentScore: 0.5, RankID: 1,
	}
	in.ExerciseBenchmarks = []Benchmark{
		{Gender: SexMale, TargetKind: BenchmarkTargetExercise, TargetID: s.exerciseID, MinThreshold: 0, RankID: 1},
		{Gender: SexMale, TargetKind: BenchmarkTargetExercise, TargetID: s.exerciseID, MinThreshold: 1, RankID: 2},
	}
	in.ScoredSets = []ScoredSet{s.scoredSet(1.5)}

	payload := Aggregate(in)
	s.Require().Len(payload.ExerciseRanks, 1)
	s.Equal(1.5, payload.ExerciseRanks[0].PermanentScore)
	s.Require().Len(payload.ExerciseTierUpdates, 1)
	s.True(payload.ExerciseTierUpdates[0].RankUp())
}

func (s *AggregatorSuite) TestAggregate_UnlockedAppliesEvenOnDowngrade() {
	in := s.baseInput()
	in.Locked = false
	in.StoredExerciseRanks[s.exerciseID] = UserExerciseRank{
		UserID: s.userID, ExerciseID: s.exerciseID, PermanentScore: 2.0, RankID: 2,
	}
	in.ScoredSets = []ScoredSet{s.scoredSet(1.0)}

	payload := Aggregate(in)
	s.Require().Len(payload.ExerciseRanks, 1)
	s.Equal(1.0, payload.ExerciseRanks[0].PermanentScore)
}

func (s *AggregatorSuite) TestAggregate_BestOfBatchWinsWithinExerciseTier() {
	in := s.baseInput()
	in.ScoredSets = []ScoredSet{s.scoredSet(0.8), s.scoredSet(1.6), s.scoredSet(1.2)}

	payload := Aggregate(in)
	s.Require().Len(payload.ExerciseRanks, 1)
	s.Equal(1.6, payload.ExerciseRanks[0].PermanentScore)
}

func (s *AggregatorSuite) TestAggregate_UntouchedMuscleGroupStillReflectsStoredMuscle() {
	in := s.baseInput()
	// otherMuscle already has a stored score; it is not touched this batch
	// but must still contribute to the group candidate via mergeMuscleScores.
	in.StoredMuscleRanks[s.otherMuscle] = UserMuscleRank{PermanentScore: 1.0}
	in.ScoredSets = []ScoredSet{s.scoredSet(1.0)}

	payload := Aggregate(in)

	// groupCandidate = muscleScore(s.muscleID)*0.6 + muscleScore(s.otherMuscle)*0.4
	// = 1.0*0.6 + 1.0*0.4 = 1.0
	s.Require().NotNil(payload.UserRank)
	s.InDelta(1.0, payload.UserRank.PermanentScore, 0.0001)
}

func (s *AggregatorSuite) TestAggregate_ExerciseRankScopedToOwnExerciseAndGender() {
	otherExerciseID := uuid.New()

	in := s.baseInput()
	in.ScoredSets = []ScoredSet{s.scoredSet(0.5)}
	in.ExerciseBenchmarks = []Benchmark{
		{Gender: SexMale, TargetKind: BenchmarkTargetExercise, TargetID: s.exerciseID, MinThreshold: 0, RankID: 1},
		{Gender: SexMale, TargetKind: BenchmarkTargetExercise, TargetID: s.exerciseID, MinThreshold: 2, RankID: 2},
		// Noise: a different exercise's ladder, and this exercise's female
		// ladder, both of which would resolve to rank 2 at score 0.5 if the
		// lookup failed to scope by TargetID/Gender.
		{Gender: SexMale, TargetKind: BenchmarkTargetExercise, TargetID: otherExerciseID, MinThreshold: 0, RankID: 2},
		{Gender: SexFemale, TargetKind: BenchmarkTargetExercise, TargetID: s.exerciseID, MinThreshold: 0, RankID: 2},
	}

	payload := Aggregate(in)

	s.Require().Len(payload.ExerciseRanks, 1)
	s.Equal(1, payload.ExerciseRanks[0].RankID)
}

func (s *AggregatorSuite) TestAggregate_NoTouchedSetsProducesNoTierUpdates() {
	in := s.baseInput()
	in.ScoredSets = nil

	payload := Aggregate(in)
	s.Empty(payload.ExerciseRanks)
	s.Empty(payload.MuscleRanks)
	s.Empty(payload.MuscleGroupRanks)
}
