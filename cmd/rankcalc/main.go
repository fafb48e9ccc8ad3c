// Command rankcalc is a smoke-test entrypoint: it wires the ranking
// pipeline end to end against a throwaway database and drives one
// finalized session and one manual calculator call, printing the
// resulting tier updates. It is not the host application's HTTP surface.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rankcalc/internal/config"
	"rankcalc/internal/db"
	"rankcalc/internal/domain"
	"rankcalc/internal/orchestrator"
	"rankcalc/internal/refcatalog"
	"rankcalc/internal/store"
)

// staticProfile is a throwaway ProfileLookup standing in for the host
// application's real profile store, which owns bodyweight and gender.
type staticProfile struct {
	bodyweightKg float64
	gender       domain.Sex
}

func (p staticProfile) BodyweightKg(ctx context.Context, userID uuid.UUID) (float64, error) {
	return p.bodyweightKg, nil
}

func (p staticProfile) Gender(ctx context.Context, userID uuid.UUID) (domain.Sex, error) {
	return p.gender, nil
}

// memoryBalance is a throwaway BalanceLedger standing in for the host
// application's billing/quota service.
type memoryBalance struct {
	remaining int
}

func (b *memoryBalance) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return b.remaining, nil
}

func (b *memoryBalance) Decrement(ctx context.Context, userID uuid.UUID) (prior, posterior int, err error) {
	prior = b.remaining
	b.remaining--
	return prior, b.remaining, nil
}

func (b *memoryBalance) Increment(ctx context.Context, userID uuid.UUID) error {
	b.remaining++
	return nil
}

func main() {
	cfg := config.Load()

	var sqldb *sql.DB
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(db.Config{DatabaseURL: cfg.DatabaseURL})
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
		defer database.Close()
		sqldb = database.DB
	} else {
		var err error
		sqldb, err = sql.Open("sqlite", ":memory:")
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer sqldb.Close()
		// Every connection to ":memory:" is a separate database; keep one.
		sqldb.SetMaxOpenConns(1)
		log.Println("DATABASE_URL not set, running the smoke test against an in-memory sqlite database")
	}

	if err := db.RunMigrations(sqldb); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	exerciseID := uuid.New()
	if err := seedSquat(sqldb, exerciseID); err != nil {
		log.Fatalf("seeding reference data: %v", err)
	}

	catalog := refcatalog.New(sqldb).WithTTL(cfg.RefCatalogTTL)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestDeadline)
	defer cancel()
	if err := catalog.Prewarm(ctx); err != nil {
		// Not fatal: the first Get retries the load.
		log.Printf("prewarming catalog: %v", err)
	}

	gateway := store.NewPersistenceGateway(sqldb)
	profile := staticProfile{bodyweightKg: 82, gender: domain.SexMale}
	balance := &memoryBalance{remaining: 3}
	orch := orchestrator.New(gateway, catalog, profile, balance, slog.Default()).
		WithBulkWriteTimeout(cfg.BulkWriteTimeout)

	userID := uuid.New()
	sessionID := uuid.New()
	sets := []domain.UserSet{
		{
			ID: uuid.New(), SessionID: sessionID, Exercise: domain.StandardExerciseRef(exerciseID),
			SetOrder: 1, Reps: 5, WeightKg: 120, PerformedAt: time.Now(),
		},
	}

	sessionResults, err := orch.FinalizeSession(ctx, userID, sessionID, sets)
	if err != nil {
		log.Fatalf("finalizing session: %v", err)
	}
	fmt.Printf("session finalized: %d exercise rank(s) updated, %d new PR(s)\n",
		len(sessionResults.Payload.ExerciseRanks), len(sessionResults.NewPRs))

	calcResults, err := orch.Calculate(ctx, userID, orchestrator.CalculatorEntry{
		ExerciseID: exerciseID, WeightKg: 140, Reps: 1,
	})
	if err != nil {
		log.Fatalf("running calculator entry: %v", err)
	}
	fmt.Printf("calculator entry resolved: %d exercise rank(s) recomputed, balance remaining %d\n",
		len(calcResults.Payload.ExerciseRanks), balance.remaining)
}

func seedSquat(sqldb *sql.DB, exerciseID uuid.UUID) error {
	ctx := context.Background()

	if _, err := sqldb.ExecContext(ctx, `
INSERT INTO exercises (id, name, type, bilateral, elite_male, elite_female)
VALUES ($1, 'Barbell Back Squat', 'barbell', 1, 0, 0)
`, exerciseID.String()); err != nil {
		return err
	}

	muscleGroupID := uuid.New()
	if _, err := sqldb.ExecContext(ctx, `
INSERT INTO muscle_groups (id, name, overall_weight) VALUES ($1, 'Legs', 1.0)
`, muscleGroupID.String()); err != nil {
		return err
	}

	muscleID := uuid.New()
	if _, err := sqldb.ExecContext(ctx, `
INSERT INTO muscles (id, name, muscle_group_id, muscle_group_weight) VALUES ($1, 'Quadriceps', $2, 1.0)
`, muscleID.String(), muscleGroupID.String()); err != nil {
		return err
	}

	if _, err := sqldb.ExecContext(ctx, `
INSERT INTO exercise_muscles (exercise_id, muscle_id, intensity, weight) VALUES ($1, $2, 'primary', 1.0)
`, exerciseID.String(), muscleID.String()); err != nil {
		return err
	}

	if _, err := sqldb.ExecContext(ctx, `
INSERT INTO benchmarks (gender, target_kind, target_id, min_threshold, rank_id) VALUES ($1, 'exercise', $2, 0, 1)
`, "male", exerciseID.String()); err != nil {
		return err
	}
	if _, err := sqldb.ExecContext(ctx, `
INSERT INTO benchmarks (gender, target_kind, target_id, min_threshold, rank_id) VALUES ($1, 'overall', $2, 0, 1)
`, "male", uuid.Nil.String()); err != nil {
		return err
	}

	return nil
}
