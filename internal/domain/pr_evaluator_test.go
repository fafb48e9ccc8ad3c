package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type PREvaluatorSuite struct {
	suite.Suite
	exerciseID uuid.UUID
	userID     uuid.UUID
}

func TestPREvaluatorSuite(t *testing.T) {
	suite.Run(t, new(PREvaluatorSuite))
}

func (s *PREvaluatorSuite) SetupTest() {
	s.exerciseID = uuid.New()
	s.userID = uuid.New()
}

func (s *PREvaluatorSuite) rankedSet(weight float64, reps int, estimated1RM, swr float64) ScoredSet {
	return ScoredSet{
		Set: UserSet{
			ID:          uuid.New(),
			Exercise:    StandardExerciseRef(s.exerciseID),
			WeightKg:    weight,
			Reps:        reps,
			PerformedAt: time.Now(),
		},
		Estimated1RM: estimated1RM,
		SWR:          swr,
	}
}

func (s *PREvaluatorSuite) TestEvaluateCandidatePRs_IgnoresCustomExercises() {
	set := ScoredSet{
		Set: UserSet{
			ID:       uuid.New(),
			Exercise: CustomExerciseRef(uuid.New()),
			WeightKg: 999,
			Reps:     999,
		},
		Estimated1RM: 999,
		SWR:          99,
	}
	updates := EvaluateCandidatePRs(s.userID, nil, []ScoredSet{set}, 80)
	s.Empty(updates)
}

func (s *PREvaluatorSuite) TestEvaluateCandidatePRs_FirstSetAlwaysSetsAllThreePRs() {
	set := s.rankedSet(100, 5, 116.67, 1.458)
	updates := EvaluateCandidatePRs(s.userID, nil, []ScoredSet{set}, 80)
	s.Len(updates, 3)

	byType := make(map[PRType]UserExercisePR)
	for _, u := range updates {
		byType[u.Type] = u
	}
	s.Contains(byType, PRTypeOneRepMax)
	s.Contains(byType, PRTypeMaxReps)
	s.Contains(byType, PRTypeMaxSWR)
	s.Equal(100.0, byType[PRTypeMaxReps].SourceWeightKg)
	s.Equal(s.userID, byType[PRTypeOneRepMax].UserID)
}

func (s *PREvaluatorSuite) TestEvaluateOneRepMax_StrictImprovementRequired() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeOneRepMax}: {Value: 120},
	}
	worse := s.rankedSet(90, 1, 90, 1.1)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{worse}, 80)
	for _, u := range updates {
		s.NotEqual(PRTypeOneRepMax, u.Type)
	}
}

func (s *PREvaluatorSuite) TestEvaluateOneRepMax_EqualValueDoesNotCount() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeOneRepMax}: {Value: 100},
	}
	tied := s.rankedSet(100, 1, 100, 1.25)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{tied}, 80)
	for _, u := range updates {
		s.NotEqual(PRTypeOneRepMax, u.Type)
	}
}

func (s *PREvaluatorSuite) TestEvaluateMaxReps_HeavierWeightSameRepsDoesNotCount() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeMaxReps}: {Value: 10, SourceWeightKg: 100},
	}
	heavierSameReps := s.rankedSet(110, 10, 0, 0)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{heavierSameReps}, 80)
	for _, u := range updates {
		s.NotEqual(PRTypeMaxReps, u.Type)
	}
}

func (s *PREvaluatorSuite) TestEvaluateMaxReps_LighterWeightMoreRepsDoesNotCount() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeMaxReps}: {Value: 8, SourceWeightKg: 100},
	}
	lighterMoreReps := s.rankedSet(80, 12, 0, 0)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{lighterMoreReps}, 80)
	for _, u := range updates {
		s.NotEqual(PRTypeMaxReps, u.Type)
	}
}

func (s *PREvaluatorSuite) TestEvaluateMaxReps_SameWeightMoreRepsCounts() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeMaxReps}: {Value: 8, SourceWeightKg: 100},
	}
	sameWeightMoreReps := s.rankedSet(100, 9, 0, 0)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{sameWeightMoreReps}, 80)

	var found bool
	for _, u := range updates {
		if u.Type == PRTypeMaxReps {
			found = true
			s.Equal(9.0, u.Value)
		}
	}
	s.True(found)
}

func (s *PREvaluatorSuite) TestEvaluateMaxReps_HeavierWeightMoreRepsCounts() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeMaxReps}: {Value: 8, SourceWeightKg: 100},
	}
	heavierMoreReps := s.rankedSet(110, 9, 0, 0)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{heavierMoreReps}, 80)

	var found bool
	for _, u := range updates {
		if u.Type == PRTypeMaxReps {
			found = true
		}
	}
	s.True(found)
}

func (s *PREvaluatorSuite) TestEvaluateMaxReps_ZeroRepsNeverCounts() {
	set := s.rankedSet(100, 0, 0, 0)
	updates := EvaluateCandidatePRs(s.userID, nil, []ScoredSet{set}, 80)
	for _, u := range updates {
		s.NotEqual(PRTypeMaxReps, u.Type)
	}
}

func (s *PREvaluatorSuite) TestEvaluateCandidatePRs_BestOfBatchWinsRegardlessOfOrder() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeOneRepMax}: {Value: 80},
	}
	// Heavier set first, lighter set second: both beat the stored PR, so
	// without within-batch folding the lighter, later set would win.
	heavier := s.rankedSet(100, 1, 100, 1.25)
	lighter := s.rankedSet(90, 1, 90, 1.125)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{heavier, lighter}, 80)

	var found int
	for _, u := range updates {
		if u.Type == PRTypeOneRepMax {
			found++
			s.Equal(100.0, u.Value)
		}
	}
	s.Equal(1, found)
}

func (s *PREvaluatorSuite) TestEvaluateCandidatePRs_BestOfBatchWinsReverseOrder() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeOneRepMax}: {Value: 80},
	}
	lighter := s.rankedSet(90, 1, 90, 1.125)
	heavier := s.rankedSet(100, 1, 100, 1.25)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{lighter, heavier}, 80)

	var found int
	for _, u := range updates {
		if u.Type == PRTypeOneRepMax {
			found++
			s.Equal(100.0, u.Value)
		}
	}
	s.Equal(1, found)
}

func (s *PREvaluatorSuite) TestEvaluateMaxSWR_StrictImprovementRequired() {
	existing := map[PRKey]UserExercisePR{
		{ExerciseID: s.exerciseID, Type: PRTypeMaxSWR}: {Value: 1.5},
	}
	worse := s.rankedSet(100, 1, 100, 1.25)
	updates := EvaluateCandidatePRs(s.userID, existing, []ScoredSet{worse}, 80)
	for _, u := range updates {
		s.NotEqual(PRTypeMaxSWR, u.Type)
	}
}
