package refcatalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	_ "modernc.org/sqlite"

	"rankcalc/internal/db"
)

type CatalogSuite struct {
	suite.Suite
	db      *sql.DB
	catalog *Catalog
	ctx     context.Context
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	var err error
	s.db, err = sql.Open("sqlite", ":memory:")
	s.Require().NoError(err)
	// Every connection to ":memory:" is a separate database; one connection
	// keeps the concurrent reads on the migrated one.
	s.db.SetMaxOpenConns(1)

	err = db.RunMigrations(s.db)
	s.Require().NoError(err)

	s.catalog = New(s.db)
	s.ctx = context.Background()
}

func (s *CatalogSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *CatalogSuite) seedMuscleGroup(id uuid.UUID) {
	_, err := s.db.ExecContext(s.ctx, `INSERT INTO muscle_groups (id, name, overall_weight) VALUES ($1, $2, $3)`,
		id.String(), "Chest", 0.2)
	s.Require().NoError(err)
}

func (s *CatalogSuite) TestGet_LoadsSeededRanks() {
	snap, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)
	s.Len(snap.Ranks, 8)
}

func (s *CatalogSuite) TestGet_CachesBetweenCalls() {
	first, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)

	groupID := uuid.New()
	s.seedMuscleGroup(groupID)

	second, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)

	s.Equal(len(first.MuscleGroups), len(second.MuscleGroups))
}

func (s *CatalogSuite) TestRefresh_ForcesReloadOnNextGet() {
	_, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)

	groupID := uuid.New()
	s.seedMuscleGroup(groupID)

	s.catalog.Refresh()

	snap, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)
	s.Len(snap.MuscleGroups, 1)
}

func (s *CatalogSuite) TestWithTTL_ExpiresAfterInterval() {
	s.catalog.WithTTL(10 * time.Millisecond)

	_, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)

	groupID := uuid.New()
	s.seedMuscleGroup(groupID)

	time.Sleep(20 * time.Millisecond)

	snap, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)
	s.Len(snap.MuscleGroups, 1)
}

func (s *CatalogSuite) TestPrewarm_PopulatesCacheBeforeFirstGet() {
	err := s.catalog.Prewarm(s.ctx)
	s.Require().NoError(err)

	snap, ok := s.catalog.get()
	s.Require().True(ok)
	s.Len(snap.Ranks, 8)
}
