package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ResetLeaderboardEpoch zeroes leaderboard_score for every user at one
// scope, leaving permanent_score untouched, for an external leaderboard
// epoch boundary. groupID uuid.Nil resets the overall tier; any other id
// resets that muscle group's tier.
func (g *PersistenceGateway) ResetLeaderboardEpoch(ctx context.Context, groupID uuid.UUID) error {
	var query string
	var args []any
	if groupID == uuid.Nil {
		query = `UPDATE user_ranks SET leaderboard_score = 0`
	} else {
		query = `UPDATE user_muscle_group_ranks SET leaderboard_score = 0 WHERE muscle_group_id = $1`
		args = []any{groupID}
	}

	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("resetting leaderboard epoch: %w", err)
	}
	return nil
}
