package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rankcalc/internal/domain"
)

// CreateAudit inserts a new CalculationAudit row in the processing state.
// Called after the balance has been decremented and before the pipeline
// runs, so a crash mid-pipeline always leaves a traceable row.
func (g *PersistenceGateway) CreateAudit(ctx context.Context, a domain.CalculationAudit) error {
	now := formatTimestamp(time.Now())
	_, err := g.db.ExecContext(ctx, `
INSERT INTO calculation_audits (id, user_id, exercise_id, request_weight_kg, request_reps, status, prior_balance, posterior_balance, rank_up_payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
`, a.ID.String(), a.UserID.String(), a.ExerciseID.String(), a.RequestWeightKg, a.RequestReps,
		string(domain.AuditStatusProcessing), a.PriorBalance, a.PosteriorBalance, nil, now)
	if err != nil {
		return fmt.Errorf("creating calculation audit: %w", err)
	}
	return nil
}

// CompleteAudit transitions a processing audit row to success, attaching
// the rank-up payload produced by the run. Returns domain.ErrTerminalAudit
// if the row has already reached success or failed.
func (g *PersistenceGateway) CompleteAudit(ctx context.Context, id uuid.UUID, payload domain.UpdatePayload) error {
	return g.finishAudit(ctx, id, domain.AuditStatusSuccess, &payload)
}

// FailAudit transitions a processing audit row to failed. Returns
// domain.ErrTerminalAudit if the row has already reached a terminal state.
func (g *PersistenceGateway) FailAudit(ctx context.Context, id uuid.UUID) error {
	return g.finishAudit(ctx, id, domain.AuditStatusFailed, nil)
}

func (g *PersistenceGateway) finishAudit(ctx context.Context, id uuid.UUID, status domain.AuditStatus, payload *domain.UpdatePayload) error {
	rankUpPayload, err := marshalRankUpPayload(payload)
	if err != nil {
		return err
	}

	res, err := g.db.ExecContext(ctx, `
UPDATE calculation_audits SET status = $1, rank_up_payload = $2, updated_at = $3
WHERE id = $4 AND status = $5
`, string(status), rankUpPayload, formatTimestamp(time.Now()), id.String(), string(domain.AuditStatusProcessing))
	if err != nil {
		return fmt.Errorf("finishing calculation audit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking calculation audit update: %w", err)
	}
	if n == 0 {
		return domain.ErrTerminalAudit
	}
	return nil
}

// SweepStaleAudits transitions every audit row still processing past
// olderThan to failed, for a call that was cancelled or crashed before it
// could resolve its own audit row (spec.md §4.6 compensation case). It
// returns the rows it swept; balances are not touched.
func (g *PersistenceGateway) SweepStaleAudits(ctx context.Context, olderThan time.Time) ([]domain.CalculationAudit, error) {
	rows, err := g.db.QueryContext(ctx, `
SELECT id, user_id, exercise_id, request_weight_kg, request_reps, prior_balance, posterior_balance, created_at
FROM calculation_audits WHERE status = $1 AND created_at < $2
`, string(domain.AuditStatusProcessing), formatTimestamp(olderThan))
	if err != nil {
		return nil, fmt.Errorf("querying stale audits: %w", err)
	}
	defer rows.Close()

	var stale []domain.CalculationAudit
	for rows.Next() {
		var a domain.CalculationAudit
		var idStr, userIDStr, exerciseIDStr, createdAt string
		if err := rows.Scan(&idStr, &userIDStr, &exerciseIDStr, &a.RequestWeightKg, &a.RequestReps, &a.PriorBalance, &a.PosteriorBalance, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning stale audit: %w", err)
		}
		a.ID, _ = uuid.Parse(idStr)
		a.UserID, _ = uuid.Parse(userIDStr)
		a.ExerciseID, _ = uuid.Parse(exerciseIDStr)
		a.CreatedAt, _ = parseTimestamp(createdAt)
		a.Status = domain.AuditStatusProcessing
		stale = append(stale, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range stale {
		if err := g.FailAudit(ctx, a.ID); err != nil && err != domain.ErrTerminalAudit {
			return nil, fmt.Errorf("failing stale audit %s: %w", a.ID, err)
		}
	}

	return stale, nil
}

// GetAudit fetches a single audit row by ID, used by tests and the demo
// entrypoint to confirm the state machine landed where expected.
func (g *PersistenceGateway) GetAudit(ctx context.Context, id uuid.UUID) (domain.CalculationAudit, error) {
	var a domain.CalculationAudit
	var idStr, userIDStr, exerciseIDStr, status, createdAt, updatedAt string
	var rankUpPayload sql.NullString

	err := g.db.QueryRowContext(ctx, `
SELECT id, user_id, exercise_id, request_weight_kg, request_reps, status, prior_balance, posterior_balance, rank_up_payload, created_at, updated_at
FROM calculation_audits WHERE id = $1
`, id.String()).Scan(&idStr, &userIDStr, &exerciseIDStr, &a.RequestWeightKg, &a.RequestReps, &status,
		&a.PriorBalance, &a.PosteriorBalance, &rankUpPayload, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.CalculationAudit{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CalculationAudit{}, fmt.Errorf("querying calculation audit: %w", err)
	}

	a.ID, _ = uuid.Parse(idStr)
	a.UserID, _ = uuid.Parse(userIDStr)
	a.ExerciseID, _ = uuid.Parse(exerciseIDStr)
	a.Status = domain.AuditStatus(status)
	a.CreatedAt, _ = parseTimestamp(createdAt)
	a.UpdatedAt, _ = parseTimestamp(updatedAt)
	if rankUpPayload.Valid {
		var p domain.UpdatePayload
		if err := json.Unmarshal([]byte(rankUpPayload.String), &p); err != nil {
			return domain.CalculationAudit{}, fmt.Errorf("unmarshaling rank up payload: %w", err)
		}
		a.RankUpPayload = &p
	}
	return a, nil
}
