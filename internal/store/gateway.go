package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rankcalc/internal/domain"
)

// PersistenceGateway is the single point of contact between the
// orchestrator and Postgres. Every read it serves for one pipeline call
// runs concurrently; every write it applies for one pipeline call runs in
// a single transaction.
type PersistenceGateway struct {
	db *sql.DB
}

// NewPersistenceGateway builds a gateway against an already-connected pool.
func NewPersistenceGateway(db *sql.DB) *PersistenceGateway {
	return &PersistenceGateway{db: db}
}

// RankContext bundles everything the RankAggregator needs about a user's
// current standing, read in one fan-out.
type RankContext struct {
	StoredExerciseRanks    map[uuid.UUID]domain.UserExerciseRank
	StoredMuscleRanks      map[uuid.UUID]domain.UserMuscleRank
	StoredMuscleGroupRanks map[uuid.UUID]domain.UserMuscleGroupRank
	StoredUserRank         domain.UserRank
	ExistingPRs            map[domain.PRKey]domain.UserExercisePR
	BodyweightKg           float64
}

// LoadRankContext fetches the user's stored rank rows and PRs, fanning the
// five reads out concurrently via errgroup (spec.md §4.6: the gateway must
// not serialize reads that don't depend on each other).
func (g *PersistenceGateway) LoadRankContext(ctx context.Context, userID uuid.UUID, exerciseIDs []uuid.UUID, bodyweightKg float64) (RankContext, error) {
	rc := RankContext{BodyweightKg: bodyweightKg}

	gr, gctx := errgroup.WithContext(ctx)

	gr.Go(func() error {
		m, err := g.loadUserExerciseRanks(gctx, userID, exerciseIDs)
		if err != nil {
			return err
		}
		rc.StoredExerciseRanks = m
		return nil
	})
	gr.Go(func() error {
		m, err := g.loadUserMuscleRanks(gctx, userID)
		if err != nil {
			return err
		}
		rc.StoredMuscleRanks = m
		return nil
	})
	gr.Go(func() error {
		m, err := g.loadUserMuscleGroupRanks(gctx, userID)
		if err != nil {
			return err
		}
		rc.StoredMuscleGroupRanks = m
		return nil
	})
	gr.Go(func() error {
		row, err := g.loadUserRank(gctx, userID)
		if err != nil {
			return err
		}
		rc.StoredUserRank = row
		return nil
	})
	gr.Go(func() error {
		m, err := g.loadExistingPRs(gctx, userID, exerciseIDs)
		if err != nil {
			return err
		}
		rc.ExistingPRs = m
		return nil
	})

	if err := gr.Wait(); err != nil {
		return RankContext{}, fmt.Errorf("loading rank context: %w", err)
	}

	return rc, nil
}

func (g *PersistenceGateway) loadUserExerciseRanks(ctx context.Context, userID uuid.UUID, exerciseIDs []uuid.UUID) (map[uuid.UUID]domain.UserExerciseRank, error) {
	out := make(map[uuid.UUID]domain.UserExerciseRank)
	if len(exerciseIDs) == 0 {
		return out, nil
	}

	rows, err := g.db.QueryContext(ctx, `
SELECT exercise_id, permanent_score, leaderboard_score, rank_id, inter_rank_id, contributing_set_id, locked
FROM user_exercise_ranks WHERE user_id = $1
`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user exercise ranks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.UserExerciseRank
		var contributingSetID sql.NullString
		var locked int
		if err := rows.Scan(&r.ExerciseID, &r.PermanentScore, &r.LeaderboardScore, &r.RankID, &r.InterRankID, &contributingSetID, &locked); err != nil {
			return nil, fmt.Errorf("scanning user exercise rank: %w", err)
		}
		r.UserID = userID
		r.Locked = locked != 0
		if contributingSetID.Valid {
			r.ContributingSetID, _ = uuid.Parse(contributingSetID.String)
		}
		out[r.ExerciseID] = r
	}
	return out, rows.Err()
}

func (g *PersistenceGateway) loadUserMuscleRanks(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]domain.UserMuscleRank, error) {
	rows, err := g.db.QueryContext(ctx, `
SELECT muscle_id, permanent_score, leaderboard_score, rank_id, inter_rank_id, locked
FROM user_muscle_ranks WHERE user_id = $1
`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user muscle ranks: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.UserMuscleRank)
	for rows.Next() {
		var r domain.UserMuscleRank
		var locked int
		if err := rows.Scan(&r.MuscleID, &r.PermanentScore, &r.LeaderboardScore, &r.RankID, &r.InterRankID, &locked); err != nil {
			return nil, fmt.Errorf("scanning user muscle rank: %w", err)
		}
		r.UserID = userID
		r.Locked = locked != 0
		out[r.MuscleID] = r
	}
	return out, rows.Err()
}

func (g *PersistenceGateway) loadUserMuscleGroupRanks(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]domain.UserMuscleGroupRank, error) {
	rows, err := g.db.QueryContext(ctx, `
SELECT muscle_group_id, permanent_score, leaderboard_score, rank_id, inter_rank_id, locked
FROM user_muscle_group_ranks WHERE user_id = $1
`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user muscle group ranks: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.UserMuscleGroupRank)
	for rows.Next() {
		var r domain.UserMuscleGroupRank
		var locked int
		if err := rows.Scan(&r.MuscleGroupID, &r.PermanentScore, &r.LeaderboardScore, &r.RankID, &r.InterRankID, &locked); err != nil {
			return nil, fmt.Errorf("scanning user muscle group rank: %w", err)
		}
		r.UserID = userID
		r.Locked = locked != 0
		out[r.MuscleGroupID] = r
	}
	return out, rows.Err()
}

func (g *PersistenceGateway) loadUserRank(ctx context.Context, userID uuid.UUID) (domain.UserRank, error) {
	var r domain.UserRank
	var locked int
	err := g.db.QueryRowContext(ctx, `
SELECT permanent_score, leaderboard_score, rank_id, inter_rank_id, locked
FROM user_ranks WHERE user_id = $1
`, userID).Scan(&r.PermanentScore, &r.LeaderboardScore, &r.RankID, &r.InterRankID, &locked)
	if err == sql.ErrNoRows {
		return domain.UserRank{UserID: userID, RankID: 1, InterRankID: 0, Locked: true}, nil
	}
	if err != nil {
		return domain.UserRank{}, fmt.Errorf("querying user rank: %w", err)
	}
	r.UserID = userID
	r.Locked = locked != 0
	return r, nil
}

func (g *PersistenceGateway) loadExistingPRs(ctx context.Context, userID uuid.UUID, exerciseIDs []uuid.UUID) (map[domain.PRKey]domain.UserExercisePR, error) {
	out := make(map[domain.PRKey]domain.UserExercisePR)
	if len(exerciseIDs) == 0 {
		return out, nil
	}

	rows, err := g.db.QueryContext(ctx, `
SELECT exercise_id, type, value, bodyweight_kg, source_weight_kg, source_set_id, achieved_at
FROM user_exercise_prs WHERE user_id = $1
`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user exercise prs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pr domain.UserExercisePR
		var sourceSetID string
		var achievedAt string
		if err := rows.Scan(&pr.ExerciseID, &pr.Type, &pr.Value, &pr.BodyweightKg, &pr.SourceWeightKg, &sourceSetID, &achievedAt); err != nil {
			return nil, fmt.Errorf("scanning user exercise pr: %w", err)
		}
		pr.UserID = userID
		pr.SourceSetID, _ = uuid.Parse(sourceSetID)
		pr.AchievedAt, _ = parseTimestamp(achievedAt)
		out[domain.PRKey{ExerciseID: pr.ExerciseID, Type: pr.Type}] = pr
	}
	return out, rows.Err()
}
