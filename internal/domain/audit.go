package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditStatus is the state-machine status of a CalculationAudit row.
// Transitions only ever go processing -> success | failed; both terminal
// states reject further writes.
type AuditStatus string

const (
	AuditStatusProcessing AuditStatus = "processing"
	AuditStatusSuccess    AuditStatus = "success"
	AuditStatusFailed     AuditStatus = "failed"
)

// Terminal reports whether this status accepts no further transitions.
func (s AuditStatus) Terminal() bool {
	return s == AuditStatusSuccess || s == AuditStatusFailed
}

// CalculationAudit is the one-row-per-manual-calculator-call log entry.
type CalculationAudit struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ExerciseID     uuid.UUID
	RequestWeightKg float64
	RequestReps    int
	Status         AuditStatus
	PriorBalance   int
	PosteriorBalance int
	RankUpPayload  *UpdatePayload
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
