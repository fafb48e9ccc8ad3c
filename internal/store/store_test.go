package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	_ "modernc.org/sqlite"

	"rankcalc/internal/db"
	"rankcalc/internal/domain"
)

// Justification: store tests verify persistence and schema constraints
// beyond feature-level coverage.

type GatewaySuite struct {
	suite.Suite
	db      *sql.DB
	gateway *PersistenceGateway
	ctx     context.Context
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	var err error
	s.db, err = sql.Open("sqlite", ":memory:")
	s.Require().NoError(err)
	// Every connection to ":memory:" is a separate database; one connection
	// keeps the concurrent reads on the migrated one.
	s.db.SetMaxOpenConns(1)

	err = db.RunMigrations(s.db)
	s.Require().NoError(err)

	s.gateway = NewPersistenceGateway(s.db)
	s.ctx = context.Background()
}

func (s *GatewaySuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *GatewaySuite) TestLoadRankContext_EmptyUserReturnsZeroValues() {
	userID := uuid.New()
	exerciseID := uuid.New()

	rc, err := s.gateway.LoadRankContext(s.ctx, userID, []uuid.UUID{exerciseID}, 80)
	s.Require().NoError(err)

	s.Empty(rc.StoredExerciseRanks)
	s.Empty(rc.StoredMuscleRanks)
	s.Equal(1, rc.StoredUserRank.RankID) // default fallback rank for a brand new user
}

func (s *GatewaySuite) TestApplyUpdate_RoundTripsExerciseRank() {
	userID := uuid.New()
	exerciseID := uuid.New()
	setID := uuid.New()

	payload := domain.UpdatePayload{
		UserID: userID,
		ExerciseRanks: []domain.UserExerciseRank{
			{
				UserID: userID, ExerciseID: exerciseID,
				PermanentScore: 1.5, LeaderboardScore: 1.5,
				RankID: 2, InterRankID: 0,
				ContributingSetID: setID, Locked: true,
			},
		},
	}

	err := s.gateway.ApplyUpdate(s.ctx, payload, nil)
	s.Require().NoError(err)

	rc, err := s.gateway.LoadRankContext(s.ctx, userID, []uuid.UUID{exerciseID}, 80)
	s.Require().NoError(err)

	row, ok := rc.StoredExerciseRanks[exerciseID]
	s.Require().True(ok)
	s.Equal(1.5, row.PermanentScore)
	s.Equal(2, row.RankID)
	s.Equal(setID, row.ContributingSetID)
}

func (s *GatewaySuite) TestApplyUpdate_PRRoundTripsAndIsVisibleToNextLoad() {
	userID := uuid.New()
	exerciseID := uuid.New()

	pr := domain.UserExercisePR{
		UserID: userID, ExerciseID: exerciseID, Type: domain.PRTypeOneRepMax,
		Value: 100, BodyweightKg: 80, SourceWeightKg: 100,
		SourceSetID: uuid.New(), AchievedAt: time.Now(),
	}
	s.Require().NoError(s.gateway.ApplyUpdate(s.ctx, domain.UpdatePayload{UserID: userID}, []domain.UserExercisePR{pr}))

	rc, err := s.gateway.LoadRankContext(s.ctx, userID, []uuid.UUID{exerciseID}, 80)
	s.Require().NoError(err)

	stored, ok := rc.ExistingPRs[domain.PRKey{ExerciseID: exerciseID, Type: domain.PRTypeOneRepMax}]
	s.Require().True(ok, "a PR written by ApplyUpdate must be keyed the same way loadExistingPRs keys it")
	s.Equal(100.0, stored.Value)
}

func (s *GatewaySuite) TestApplyUpdate_PRUpsertIgnoresWorseValue() {
	userID := uuid.New()
	exerciseID := uuid.New()

	best := domain.UserExercisePR{
		UserID: userID, ExerciseID: exerciseID, Type: domain.PRTypeOneRepMax,
		Value: 120, BodyweightKg: 80, SourceWeightKg: 110, SourceSetID: uuid.New(), AchievedAt: time.Now(),
	}
	worse := domain.UserExercisePR{
		UserID: userID, ExerciseID: exerciseID, Type: domain.PRTypeOneRepMax,
		Value: 90, BodyweightKg: 80, SourceWeightKg: 85, SourceSetID: uuid.New(), AchievedAt: time.Now(),
	}
	s.Require().NoError(s.gateway.ApplyUpdate(s.ctx, domain.UpdatePayload{UserID: userID}, []domain.UserExercisePR{best}))
	s.Require().NoError(s.gateway.ApplyUpdate(s.ctx, domain.UpdatePayload{UserID: userID}, []domain.UserExercisePR{worse}))

	rc, err := s.gateway.LoadRankContext(s.ctx, userID, []uuid.UUID{exerciseID}, 80)
	s.Require().NoError(err)

	stored := rc.ExistingPRs[domain.PRKey{ExerciseID: exerciseID, Type: domain.PRTypeOneRepMax}]
	s.Equal(120.0, stored.Value, "upsertPR must not let a worse batch overwrite a better stored PR")
}

func (s *GatewaySuite) TestApplyUpdate_UpsertOverwritesPriorRow() {
	userID := uuid.New()
	exerciseID := uuid.New()

	first := domain.UpdatePayload{
		UserID: userID,
		ExerciseRanks: []domain.UserExerciseRank{
			{UserID: userID, ExerciseID: exerciseID, PermanentScore: 1.0, RankID: 1, ContributingSetID: uuid.New(), Locked: true},
		},
	}
	s.Require().NoError(s.gateway.ApplyUpdate(s.ctx, first, nil))

	second := domain.UpdatePayload{
		UserID: userID,
		ExerciseRanks: []domain.UserExerciseRank{
			{UserID: userID, ExerciseID: exerciseID, PermanentScore: 2.0, RankID: 2, ContributingSetID: uuid.New(), Locked: true},
		},
	}
	s.Require().NoError(s.gateway.ApplyUpdate(s.ctx, second, nil))

	rc, err := s.gateway.LoadRankContext(s.ctx, userID, []uuid.UUID{exerciseID}, 80)
	s.Require().NoError(err)
	s.Equal(2.0, rc.StoredExerciseRanks[exerciseID].PermanentScore)
}

func (s *GatewaySuite) TestInsertSets_RejectsSyntheticSets() {
	set := domain.UserSet{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		Exercise:  domain.StandardExerciseRef(uuid.New()),
		Synthetic: true,
	}
	err := s.gateway.InsertSets(s.ctx, []domain.UserSet{set}, uuid.New())
	s.Error(err)
}

func (s *GatewaySuite) TestAuditLifecycle_ProcessingToSuccess() {
	userID := uuid.New()
	exerciseID := uuid.New()
	auditID := uuid.New()

	audit := domain.CalculationAudit{
		ID: auditID, UserID: userID, ExerciseID: exerciseID,
		RequestWeightKg: 100, RequestReps: 5,
		PriorBalance: 3, PosteriorBalance: 2,
	}
	s.Require().NoError(s.gateway.CreateAudit(s.ctx, audit))

	fetched, err := s.gateway.GetAudit(s.ctx, auditID)
	s.Require().NoError(err)
	s.Equal(domain.AuditStatusProcessing, fetched.Status)

	payload := domain.UpdatePayload{UserID: userID}
	s.Require().NoError(s.gateway.CompleteAudit(s.ctx, auditID, payload))

	fetched, err = s.gateway.GetAudit(s.ctx, auditID)
	s.Require().NoError(err)
	s.Equal(domain.AuditStatusSuccess, fetched.Status)
}

func (s *GatewaySuite) TestAuditLifecycle_TerminalRowRejectsSecondTransition() {
	userID := uuid.New()
	auditID := uuid.New()

	audit := domain.CalculationAudit{ID: auditID, UserID: userID, ExerciseID: uuid.New()}
	s.Require().NoError(s.gateway.CreateAudit(s.ctx, audit))
	s.Require().NoError(s.gateway.FailAudit(s.ctx, auditID))

	err := s.gateway.CompleteAudit(s.ctx, auditID, domain.UpdatePayload{})
	s.ErrorIs(err, domain.ErrTerminalAudit)
}

func (s *GatewaySuite) TestSweepStaleAudits_FailsOldProcessingRows() {
	userID := uuid.New()
	auditID := uuid.New()

	audit := domain.CalculationAudit{ID: auditID, UserID: userID, ExerciseID: uuid.New()}
	s.Require().NoError(s.gateway.CreateAudit(s.ctx, audit))

	swept, err := s.gateway.SweepStaleAudits(s.ctx, time.Now().Add(1*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(swept, 1)

	fetched, err := s.gateway.GetAudit(s.ctx, auditID)
	s.Require().NoError(err)
	s.Equal(domain.AuditStatusFailed, fetched.Status)
}

func (s *GatewaySuite) TestResetLeaderboardEpoch_ZeroesOverallLeaderboardScoreOnly() {
	userID := uuid.New()
	payload := domain.UpdatePayload{
		UserID: userID,
		UserRank: &domain.UserRank{
			UserID: userID, PermanentScore: 3.0, LeaderboardScore: 3.0, RankID: 2,
		},
	}
	s.Require().NoError(s.gateway.ApplyUpdate(s.ctx, payload, nil))

	s.Require().NoError(s.gateway.ResetLeaderboardEpoch(s.ctx, uuid.Nil))

	rc, err := s.gateway.LoadRankContext(s.ctx, userID, nil, 80)
	s.Require().NoError(err)
	s.Equal(0.0, rc.StoredUserRank.LeaderboardScore)
	s.Equal(3.0, rc.StoredUserRank.PermanentScore)
}
