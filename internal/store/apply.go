package store

import (
	"context"
	"encoding/json"
	"fmt"

	"rankcalc/internal/domain"
)

// ApplyUpdate writes every tier row in an UpdatePayload plus any new PRs in
// a single transaction, so a partial-tier failure never leaves the user's
// standing in an inconsistent state (spec.md §4.6).
func (g *PersistenceGateway) ApplyUpdate(ctx context.Context, payload domain.UpdatePayload, newPRs []domain.UserExercisePR) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning bulk update transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range payload.ExerciseRanks {
		if err := upsertExerciseRank(ctx, tx, r); err != nil {
			return err
		}
	}
	for _, r := range payload.MuscleRanks {
		if err := upsertMuscleRank(ctx, tx, r); err != nil {
			return err
		}
	}
	for _, r := range payload.MuscleGroupRanks {
		if err := upsertMuscleGroupRank(ctx, tx, r); err != nil {
			return err
		}
	}
	if payload.UserRank != nil {
		if err := upsertUserRank(ctx, tx, *payload.UserRank); err != nil {
			return err
		}
	}
	for _, pr := range newPRs {
		if err := upsertPR(ctx, tx, pr); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bulk update transaction: %w", err)
	}
	return nil
}

func upsertExerciseRank(ctx context.Context, tx DBTX, r domain.UserExerciseRank) error {
	// ContributingSetID is always set by the aggregator for an exercise-tier
	// row; store it as text for portability across drivers.
	contributingSetID := r.ContributingSetID.String()

	_, err := tx.ExecContext(ctx, `
INSERT INTO user_exercise_ranks (user_id, exercise_id, permanent_score, leaderboard_score, rank_id, inter_rank_id, contributing_set_id, locked)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, exercise_id) DO UPDATE SET
    permanent_score = excluded.permanent_score,
    leaderboard_score = excluded.leaderboard_score,
    rank_id = excluded.rank_id,
    inter_rank_id = excluded.inter_rank_id,
    contributing_set_id = excluded.contributing_set_id,
    locked = excluded.locked
`, r.UserID, r.ExerciseID, r.PermanentScore, r.LeaderboardScore, r.RankID, r.InterRankID, contributingSetID, boolToInt(r.Locked))
	if err != nil {
		return fmt.Errorf("upserting exercise rank: %w", err)
	}
	return nil
}

func upsertMuscleRank(ctx context.Context, tx DBTX, r domain.UserMuscleRank) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO user_muscle_ranks (user_id, muscle_id, permanent_score, leaderboard_score, rank_id, inter_rank_id, locked)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, muscle_id) DO UPDATE SET
    permanent_score = excluded.permanent_score,
    leaderboard_score = excluded.leaderboard_score,
    rank_id = excluded.rank_id,
    inter_rank_id = excluded.inter_rank_id,
    locked = excluded.locked
`, r.UserID, r.MuscleID, r.PermanentScore, r.LeaderboardScore, r.RankID, r.InterRankID, boolToInt(r.Locked))
	if err != nil {
		return fmt.Errorf("upserting muscle rank: %w", err)
	}
	return nil
}

func upsertMuscleGroupRank(ctx context.Context, tx DBTX, r domain.UserMuscleGroupRank) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO user_muscle_group_ranks (user_id, muscle_group_id, permanent_score, leaderboard_score, rank_id, inter_rank_id, locked)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, muscle_group_id) DO UPDATE SET
    permanent_score = excluded.permanent_score,
    leaderboard_score = excluded.leaderboard_score,
    rank_id = excluded.rank_id,
    inter_rank_id = excluded.inter_rank_id,
    locked = excluded.locked
`, r.UserID, r.MuscleGroupID, r.PermanentScore, r.LeaderboardScore, r.RankID, r.InterRankID, boolToInt(r.Locked))
	if err != nil {
		return fmt.Errorf("upserting muscle group rank: %w", err)
	}
	return nil
}

func upsertUserRank(ctx context.Context, tx DBTX, r domain.UserRank) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO user_ranks (user_id, permanent_score, leaderboard_score, rank_id, inter_rank_id, locked)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    permanent_score = excluded.permanent_score,
    leaderboard_score = excluded.leaderboard_score,
    rank_id = excluded.rank_id,
    inter_rank_id = excluded.inter_rank_id,
    locked = excluded.locked
`, r.UserID, r.PermanentScore, r.LeaderboardScore, r.RankID, r.InterRankID, boolToInt(r.Locked))
	if err != nil {
		return fmt.Errorf("upserting user rank: %w", err)
	}
	return nil
}

// upsertPR only overwrites a stored PR row when the incoming value strictly
// improves on it, so the PR table stays monotone non-decreasing even if a
// caller somehow applies an older batch after a newer one (PrEvaluator
// already guarantees this within one batch; this is the storage-layer
// backstop for across-call ordering).
func upsertPR(ctx context.Context, tx DBTX, pr domain.UserExercisePR) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO user_exercise_prs (user_id, exercise_id, type, value, bodyweight_kg, source_weight_kg, source_set_id, achieved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, exercise_id, type) DO UPDATE SET
    value = excluded.value,
    bodyweight_kg = excluded.bodyweight_kg,
    source_weight_kg = excluded.source_weight_kg,
    source_set_id = excluded.source_set_id,
    achieved_at = excluded.achieved_at
WHERE excluded.value > user_exercise_prs.value
`, pr.UserID, pr.ExerciseID, pr.Type, pr.Value, pr.BodyweightKg, pr.SourceWeightKg, pr.SourceSetID.String(), formatTimestamp(pr.AchievedAt))
	if err != nil {
		return fmt.Errorf("upserting exercise pr: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// marshalRankUpPayload serializes an UpdatePayload for storage on a
// CalculationAudit row's rank_up_payload column.
func marshalRankUpPayload(payload *domain.UpdatePayload) (any, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling rank up payload: %w", err)
	}
	return string(b), nil
}
