package db

import (
	"database/sql"
	"fmt"
)

// RunMigrations applies all database migrations and seeds the static
// reference ladder (ranks) used by every benchmark lookup. The schema is
// written in the SQL subset both SQLite and PostgreSQL accept, so the same
// migrations run unmodified against the modernc.org/sqlite in-memory store
// used by fast unit tests and the Postgres instance used in production and
// integration tests.
func RunMigrations(db *sql.DB) error {
	migrations := []string{
		createMuscleGroupsTable,
		createMusclesTable, // after muscle_groups (references it)
		createExercisesTable,
		createExerciseMusclesTable, // after exercises, muscles
		createRanksTable,
		createInterRanksTable, // after ranks
		createBenchmarksTable, // after ranks
		createUserSetsTable,
		createUserExerciseRanksTable, // after exercises, ranks, inter_ranks
		createUserMuscleRanksTable,
		createUserMuscleGroupRanksTable,
		createUserRanksTable,
		createUserExercisePRsTable,
		createCalculationAuditsTable,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	if err := seedRanks(db); err != nil {
		return fmt.Errorf("seeding ranks failed: %w", err)
	}

	return nil
}

// All IDs are stored as TEXT (uuid.String()); booleans as INTEGER 0/1;
// timestamps as TEXT in RFC3339. This keeps every statement valid on both
// SQLite and PostgreSQL without a dialect branch.

const createMuscleGroupsTable = `
CREATE TABLE IF NOT EXISTS muscle_groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    overall_weight REAL NOT NULL CHECK (overall_weight > 0 AND overall_weight <= 1)
);
`

const createMusclesTable = `
CREATE TABLE IF NOT EXISTS muscles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    muscle_group_id TEXT NOT NULL REFERENCES muscle_groups(id),
    muscle_group_weight REAL NOT NULL CHECK (muscle_group_weight > 0 AND muscle_group_weight <= 1)
);
`

const createExercisesTable = `
CREATE TABLE IF NOT EXISTS exercises (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL CHECK (type IN ('barbell','free-weights','body-weight','weighted-bw','assisted-bw','calisthenics','machine','cardio','N/A')),
    bilateral INTEGER NOT NULL DEFAULT 0,
    elite_male REAL NOT NULL DEFAULT 0,
    elite_female REAL NOT NULL DEFAULT 0
);
`

const createExerciseMusclesTable = `
CREATE TABLE IF NOT EXISTS exercise_muscles (
    exercise_id TEXT NOT NULL REFERENCES exercises(id),
    muscle_id TEXT NOT NULL REFERENCES muscles(id),
    intensity TEXT NOT NULL CHECK (intensity IN ('primary','secondary','accessory')),
    weight REAL NOT NULL CHECK (weight > 0 AND weight <= 1),
    PRIMARY KEY (exercise_id, muscle_id)
);
`

const createRanksTable = `
CREATE TABLE IF NOT EXISTS ranks (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    min_score REAL NOT NULL,
    max_score REAL NOT NULL
);
`

const createInterRanksTable = `
CREATE TABLE IF NOT EXISTS inter_ranks (
    id INTEGER PRIMARY KEY,
    rank_id INTEGER NOT NULL REFERENCES ranks(id),
    min_score REAL NOT NULL,
    max_score REAL NOT NULL,
    sort_order INTEGER NOT NULL
);
`

const createBenchmarksTable = `
CREATE TABLE IF NOT EXISTS benchmarks (
    gender TEXT NOT NULL CHECK (gender IN ('male','female')),
    target_kind TEXT NOT NULL CHECK (target_kind IN ('exercise','muscle','muscle_group','overall')),
    target_id TEXT NOT NULL,
    min_threshold REAL NOT NULL,
    rank_id INTEGER NOT NULL REFERENCES ranks(id),
    PRIMARY KEY (gender, target_kind, target_id, min_threshold)
);
`

const createUserSetsTable = `
CREATE TABLE IF NOT EXISTS user_sets (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    exercise_kind TEXT NOT NULL CHECK (exercise_kind IN ('standard','custom')),
    exercise_id TEXT NOT NULL,
    set_order INTEGER NOT NULL,
    reps INTEGER NOT NULL,
    weight_kg REAL NOT NULL,
    performed_at TEXT NOT NULL,
    synthetic INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_user_sets_user_session ON user_sets(user_id, session_id);
`

const createUserExerciseRanksTable = `
CREATE TABLE IF NOT EXISTS user_exercise_ranks (
    user_id TEXT NOT NULL,
    exercise_id TEXT NOT NULL,
    permanent_score REAL NOT NULL DEFAULT 0,
    leaderboard_score REAL NOT NULL DEFAULT 0,
    rank_id INTEGER NOT NULL REFERENCES ranks(id),
    inter_rank_id INTEGER NOT NULL REFERENCES inter_ranks(id),
    contributing_set_id TEXT,
    locked INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (user_id, exercise_id)
);
`

const createUserMuscleRanksTable = `
CREATE TABLE IF NOT EXISTS user_muscle_ranks (
    user_id TEXT NOT NULL,
    muscle_id TEXT NOT NULL,
    permanent_score REAL NOT NULL DEFAULT 0,
    leaderboard_score REAL NOT NULL DEFAULT 0,
    rank_id INTEGER NOT NULL REFERENCES ranks(id),
    inter_rank_id INTEGER NOT NULL REFERENCES inter_ranks(id),
    locked INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (user_id, muscle_id)
);
`

const createUserMuscleGroupRanksTable = `
CREATE TABLE IF NOT EXISTS user_muscle_group_ranks (
    user_id TEXT NOT NULL,
    muscle_group_id TEXT NOT NULL,
    permanent_score REAL NOT NULL DEFAULT 0,
    leaderboard_score REAL NOT NULL DEFAULT 0,
    rank_id INTEGER NOT NULL REFERENCES ranks(id),
    inter_rank_id INTEGER NOT NULL REFERENCES inter_ranks(id),
    locked INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (user_id, muscle_group_id)
);
`

const createUserRanksTable = `
CREATE TABLE IF NOT EXISTS user_ranks (
    user_id TEXT PRIMARY KEY,
    permanent_score REAL NOT NULL DEFAULT 0,
    leaderboard_score REAL NOT NULL DEFAULT 0,
    rank_id INTEGER NOT NULL REFERENCES ranks(id),
    inter_rank_id INTEGER NOT NULL REFERENCES inter_ranks(id),
    locked INTEGER NOT NULL DEFAULT 1
);
`

const createUserExercisePRsTable = `
CREATE TABLE IF NOT EXISTS user_exercise_prs (
    user_id TEXT NOT NULL,
    exercise_id TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('one_rep_max','max_reps','max_swr')),
    value REAL NOT NULL,
    bodyweight_kg REAL NOT NULL,
    source_weight_kg REAL NOT NULL,
    source_set_id TEXT NOT NULL,
    achieved_at TEXT NOT NULL,
    PRIMARY KEY (user_id, exercise_id, type)
);
`

const createCalculationAuditsTable = `
CREATE TABLE IF NOT EXISTS calculation_audits (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    exercise_id TEXT NOT NULL,
    request_weight_kg REAL NOT NULL,
    request_reps INTEGER NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('processing','success','failed')),
    prior_balance INTEGER NOT NULL,
    posterior_balance INTEGER NOT NULL,
    rank_up_payload TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calculation_audits_status ON calculation_audits(status, created_at);
`

// seedRanks seeds the fixed eight-tier rank ladder (spec.md §4.2): the rank
// table is small, static, and never user-editable, so it is seeded rather
// than left to an operator migration.
func seedRanks(db *sql.DB) error {
	const upsertRank = `
INSERT INTO ranks (id, name, min_score, max_score)
SELECT $1, $2, $3, $4
WHERE NOT EXISTS (SELECT 1 FROM ranks WHERE id = $1);
`
	ranks := []struct {
		id       int
		name     string
		min, max float64
	}{
		{1, "F", 0, 0.5},
		{2, "E", 0.5, 0.75},
		{3, "D", 0.75, 1.0},
		{4, "C", 1.0, 1.25},
		{5, "B", 1.25, 1.5},
		{6, "A", 1.5, 1.75},
		{7, "S", 1.75, 2.0},
		{8, "Elite", 2.0, 1e9},
	}
	for _, r := range ranks {
		if _, err := db.Exec(upsertRank, r.id, r.name, r.min, r.max); err != nil {
			return fmt.Errorf("seeding rank %s: %w", r.name, err)
		}
	}
	return nil
}
