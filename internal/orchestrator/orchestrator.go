// Package orchestrator drives the two ways a user's standing changes: a
// finalized workout session (real sets, tier updates only apply on
// improvement) and a manual calculator call (one synthetic set, quota-
// gated, fully audited).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rankcalc/internal/domain"
	"rankcalc/internal/refcatalog"
	"rankcalc/internal/store"
)

// ProfileLookup resolves the two per-user facts the Scorer needs that
// aren't part of the ranking schema itself, kept as a narrow interface so
// the orchestrator doesn't depend on the rest of the host application's
// profile store.
type ProfileLookup interface {
	BodyweightKg(ctx context.Context, userID uuid.UUID) (float64, error)
	Gender(ctx context.Context, userID uuid.UUID) (domain.Sex, error)
}

// BalanceLedger owns the manual-calculator quota: how many unlocked
// calculator calls a non-premium user has left, and decrementing it.
// Rate-limiting of the surrounding HTTP surface is explicitly out of
// scope; this is strictly the internal balance bookkeeping the audit row
// references.
type BalanceLedger interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Decrement(ctx context.Context, userID uuid.UUID) (prior, posterior int, err error)
	// Increment reverses a prior Decrement, used to compensate a balance
	// when the decrement succeeded but the calculation that consumed it
	// failed to persist (spec.md §7).
	Increment(ctx context.Context, userID uuid.UUID) error
}

// CalculatorOrchestrator drives both entry points into the ranking
// pipeline, sharing one pass through Scorer -> PrEvaluator -> RankAggregator.
type CalculatorOrchestrator struct {
	gateway          *store.PersistenceGateway
	catalog          *refcatalog.Catalog
	profile          ProfileLookup
	balance          BalanceLedger
	log              *slog.Logger
	bulkWriteTimeout time.Duration
}

// New builds a CalculatorOrchestrator. log may be nil, in which case
// slog.Default() is used.
func New(gateway *store.PersistenceGateway, catalog *refcatalog.Catalog, profile ProfileLookup, balance BalanceLedger, log *slog.Logger) *CalculatorOrchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &CalculatorOrchestrator{gateway: gateway, catalog: catalog, profile: profile, balance: balance, log: log}
}

// WithBulkWriteTimeout bounds every ApplyUpdate call with its own
// deadline, independent of the caller's context, so a slow bulk write
// can't hold an audit row open indefinitely. Zero disables the bound.
func (o *CalculatorOrchestrator) WithBulkWriteTimeout(d time.Duration) *CalculatorOrchestrator {
	o.bulkWriteTimeout = d
	return o
}

func (o *CalculatorOrchestrator) applyUpdate(ctx context.Context, payload domain.UpdatePayload, newPRs []domain.UserExercisePR) error {
	if o.bulkWriteTimeout <= 0 {
		return o.gateway.ApplyUpdate(ctx, payload, newPRs)
	}
	ctx, cancel := context.WithTimeout(ctx, o.bulkWriteTimeout)
	defer cancel()
	return o.gateway.ApplyUpdate(ctx, payload, newPRs)
}

// FinalizeSession scores every set in a just-completed workout, persists
// them, and applies Locked (no-downgrade) tier updates. No quota and no
// audit row are involved — this is the free, automatic path.
func (o *CalculatorOrchestrator) FinalizeSession(ctx context.Context, userID, sessionID uuid.UUID, sets []domain.UserSet) (domain.RankingResults, error) {
	if len(sets) == 0 {
		return domain.RankingResults{}, fmt.Errorf("%w: session has no sets", domain.ErrInvalidInput)
	}
	for _, s := range sets {
		if s.Synthetic {
			return domain.RankingResults{}, fmt.Errorf("%w: finalize session cannot include synthetic sets", domain.ErrInvalidInput)
		}
	}

	results, err := o.runPipeline(ctx, userID, sets, true)
	if err != nil {
		return domain.RankingResults{}, err
	}

	if err := o.gateway.InsertSets(ctx, sets, userID); err != nil {
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := o.applyUpdate(ctx, results.Payload, results.NewPRs); err != nil {
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	return results, nil
}

// CalculatorEntry is one manual, unlocked calculator request: a single
// hypothetical set, evaluated against one exercise.
type CalculatorEntry struct {
	ExerciseID uuid.UUID
	WeightKg   float64
	Reps       int
}

// Calculate runs the manual-calculator flow: decrement the user's balance,
// open an audit row, run the pipeline unlocked (so the result always
// reflects this entry regardless of whether it's an improvement), and
// resolve the audit row to success or failed. A pipeline failure (nothing
// computed) leaves the decrement in place and the audit row failed;
// SweepStaleAudits is the compensation path for a crash or cancellation in
// that window. A bulk-write failure (something was computed but never
// persisted) is compensated synchronously here: the balance is restored
// before returning, per spec.md §7's "balance decrement is compensated iff
// the decrement succeeded but the bulk write failed."
func (o *CalculatorOrchestrator) Calculate(ctx context.Context, userID uuid.UUID, entry CalculatorEntry) (domain.RankingResults, error) {
	if entry.ExerciseID == uuid.Nil || entry.Reps <= 0 || entry.WeightKg <= 0 {
		return domain.RankingResults{}, fmt.Errorf("%w: calculator entry requires exercise, weight and reps", domain.ErrInvalidInput)
	}

	balance, err := o.balance.Balance(ctx, userID)
	if err != nil {
		return domain.RankingResults{}, err
	}
	if balance <= 0 {
		return domain.RankingResults{}, domain.ErrInsufficientBalance
	}

	prior, posterior, err := o.balance.Decrement(ctx, userID)
	if err != nil {
		return domain.RankingResults{}, err
	}

	audit := domain.CalculationAudit{
		ID: uuid.New(), UserID: userID, ExerciseID: entry.ExerciseID,
		RequestWeightKg: entry.WeightKg, RequestReps: entry.Reps,
		Status: domain.AuditStatusProcessing, PriorBalance: prior, PosteriorBalance: posterior,
	}
	if err := o.gateway.CreateAudit(ctx, audit); err != nil {
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if err := ctx.Err(); err != nil {
		// Cancelled before the pipeline ran at all: nothing was computed,
		// so there is nothing to persist. The balance decrement stands and
		// the row is marked failed here; if that write fails too,
		// SweepStaleAudits fails the row once it ages out.
		_ = o.gateway.FailAudit(context.Background(), audit.ID)
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrDeadlineExceeded, err)
	}

	syntheticSet := domain.UserSet{
		ID:          uuid.New(),
		SessionID:   uuid.New(),
		Exercise:    domain.StandardExerciseRef(entry.ExerciseID),
		SetOrder:    1,
		Reps:        entry.Reps,
		WeightKg:    entry.WeightKg,
		PerformedAt: time.Now(),
		Synthetic:   true,
	}

	results, err := o.runPipeline(ctx, userID, []domain.UserSet{syntheticSet}, false)
	if err != nil {
		if failErr := o.gateway.FailAudit(context.Background(), audit.ID); failErr != nil {
			o.log.Error("failed to mark audit failed after pipeline error", "audit_id", audit.ID, "error", failErr)
		}
		return domain.RankingResults{}, err
	}

	if err := o.applyUpdate(ctx, results.Payload, results.NewPRs); err != nil {
		if failErr := o.gateway.FailAudit(context.Background(), audit.ID); failErr != nil {
			o.log.Error("failed to mark audit failed after bulk write error", "audit_id", audit.ID, "error", failErr)
		}
		// The decrement succeeded but the bulk write did not: compensate the
		// balance back rather than leave the user short for a calculation
		// that produced no rank change (spec.md §7, scenario 5).
		if compErr := o.balance.Increment(context.Background(), userID); compErr != nil {
			o.log.Error("failed to compensate balance after bulk write error", "audit_id", audit.ID, "user_id", userID, "error", compErr)
		}
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if err := o.gateway.CompleteAudit(ctx, audit.ID, results.Payload); err != nil {
		o.log.Error("bulk write succeeded but audit completion failed", "audit_id", audit.ID, "error", err)
	}

	return results, nil
}

// runPipeline scores the given sets, evaluates new PRs, and aggregates the
// four tiers, sharing the exact same path for both entry flows.
func (o *CalculatorOrchestrator) runPipeline(ctx context.Context, userID uuid.UUID, sets []domain.UserSet, locked bool) (domain.RankingResults, error) {
	snap, err := o.catalog.Get(ctx)
	if err != nil {
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrReferenceData, err)
	}

	bodyweightKg, err := o.profile.BodyweightKg(ctx, userID)
	if err != nil {
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrBodyweightNotFound, err)
	}

	gender, err := o.profile.Gender(ctx, userID)
	if err != nil {
		return domain.RankingResults{}, fmt.Errorf("%w: %v", domain.ErrUserNotFound, err)
	}

	touchedExerciseIDs := make(map[uuid.UUID]bool)
	for _, s := range sets {
		if s.Exercise.Ranked() {
			touchedExerciseIDs[s.Exercise.ID] = true
		}
	}
	exerciseIDs := make([]uuid.UUID, 0, len(touchedExerciseIDs))
	for id := range touchedExerciseIDs {
		exerciseIDs = append(exerciseIDs, id)
	}

	rc, err := o.gateway.LoadRankContext(ctx, userID, exerciseIDs, bodyweightKg)
	if err != nil {
		return domain.RankingResults{}, err
	}

	scoredSets := make([]domain.ScoredSet, 0, len(sets))
	for _, s := range sets {
		if !s.Exercise.Ranked() {
			continue
		}
		exercise, ok := snap.Exercises[s.Exercise.ID]
		if !ok {
			o.log.Warn("exercise missing from reference catalog, skipping", "exercise_id", s.Exercise.ID)
			continue
		}
		scored := domain.ScoreAndRank(s, domain.ScoreInput{
			WeightKg: s.WeightKg, Reps: s.Reps, BodyweightKg: bodyweightKg,
			Gender: gender, Exercise: exercise,
		}, snap.ExerciseBenchmarks, snap.Ranks, snap.InterRanks)
		scoredSets = append(scoredSets, scored)
	}

	if len(scoredSets) == 0 {
		return domain.RankingResults{}, fmt.Errorf("%w: no standard-catalog sets to score", domain.ErrInvalidInput)
	}

	newPRs := domain.EvaluateCandidatePRs(userID, rc.ExistingPRs, scoredSets, bodyweightKg)

	payload := domain.Aggregate(domain.AggregatorInput{
		UserID: userID, Gender: gender, Locked: locked,
		ScoredSets:             scoredSets,
		StoredExerciseRanks:    rc.StoredExerciseRanks,
		StoredMuscleRanks:      rc.StoredMuscleRanks,
		StoredMuscleGroupRanks: rc.StoredMuscleGroupRanks,
		StoredUserRank:         rc.StoredUserRank,
		ExerciseMuscles:        snap.ExerciseMuscles,
		Muscles:                snap.Muscles,
		MuscleGroups:           snap.MuscleGroups,
		ExerciseBenchmarks:     snap.ExerciseBenchmarks,
		MuscleBenchmarks:       snap.MuscleBenchmarks,
		MuscleGroupBenchmarks:  snap.MuscleGroupBenchmarks,
		OverallBenchmarks:      snap.OverallBenchmarks,
		Ranks:                  snap.Ranks,
		InterRanks:             snap.InterRanks,
	})

	return domain.RankingResults{
		Payload: payload,
		NewPRs:  newPRs,
		Summary: domain.Summarize(payload),
	}, nil
}
