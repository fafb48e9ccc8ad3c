package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rankcalc/internal/domain"
)

// InsertSets persists a finalized workout session's sets in one
// transaction. If any set is synthetic (a manual-calculator entry) it
// returns an error and writes none of them.
func (g *PersistenceGateway) InsertSets(ctx context.Context, sets []domain.UserSet, userID uuid.UUID) error {
	if len(sets) == 0 {
		return nil
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning set insert transaction: %w", err)
	}
	defer tx.Rollback()

	for _, set := range sets {
		if set.Synthetic {
			return fmt.Errorf("refusing to persist synthetic set %s", set.ID)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO user_sets (id, user_id, session_id, exercise_kind, exercise_id, set_order, reps, weight_kg, performed_at, synthetic)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, set.ID.String(), userID.String(), set.SessionID.String(), string(set.Exercise.Kind), set.Exercise.ID.String(),
			set.SetOrder, set.Reps, set.WeightKg, formatTimestamp(set.PerformedAt), boolToInt(set.Synthetic))
		if err != nil {
			return fmt.Errorf("inserting set %s: %w", set.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing set insert transaction: %w", err)
	}
	return nil
}
