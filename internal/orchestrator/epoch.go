package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rankcalc/internal/domain"
)

// ResetLeaderboardEpoch zeroes the leaderboard_score channel at one scope,
// called by an external scheduler at an epoch boundary. Permanent scores
// and ranks are untouched; only the leaderboard-facing channel resets.
func (o *CalculatorOrchestrator) ResetLeaderboardEpoch(ctx context.Context, groupID uuid.UUID) error {
	return o.gateway.ResetLeaderboardEpoch(ctx, groupID)
}

// SweepStaleAudits fails every calculation audit row still processing past
// olderThan, compensating for a crash or cancellation between the balance
// decrement and the audit row's own resolution. Intended to be called
// periodically by an external scheduler, not by request-handling code.
func (o *CalculatorOrchestrator) SweepStaleAudits(ctx context.Context, olderThan time.Time) ([]domain.CalculationAudit, error) {
	return o.gateway.SweepStaleAudits(ctx, olderThan)
}
