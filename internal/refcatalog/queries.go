package refcatalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"rankcalc/internal/domain"
)

func loadExercises(ctx context.Context, db *sql.DB) (map[uuid.UUID]domain.Exercise, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, type, bilateral, elite_male, elite_female FROM exercises
`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	exercises := make(map[uuid.UUID]domain.Exercise)
	for rows.Next() {
		var e domain.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Bilateral, &e.Elite.Male, &e.Elite.Female); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		exercises[e.ID] = e
	}
	return exercises, rows.Err()
}

func loadMuscles(ctx context.Context, db *sql.DB) ([]domain.Muscle, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, muscle_group_id, muscle_group_weight FROM muscles
`)
	if err != nil {
		return nil, fmt.Errorf("querying muscles: %w", err)
	}
	defer rows.Close()

	var muscles []domain.Muscle
	for rows.Next() {
		var m domain.Muscle
		if err := rows.Scan(&m.ID, &m.Name, &m.MuscleGroupID, &m.MuscleGroupWeight); err != nil {
			return nil, fmt.Errorf("scanning muscle: %w", err)
		}
		muscles = append(muscles, m)
	}
	return muscles, rows.Err()
}

func loadMuscleGroups(ctx context.Context, db *sql.DB) ([]domain.MuscleGroup, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, overall_weight FROM muscle_groups
`)
	if err != nil {
		return nil, fmt.Errorf("querying muscle groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.MuscleGroup
	for rows.Next() {
		var g domain.MuscleGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.OverallWeight); err != nil {
			return nil, fmt.Errorf("scanning muscle group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func loadExerciseMuscles(ctx context.Context, db *sql.DB) ([]domain.ExerciseMuscle, error) {
	rows, err := db.QueryContext(ctx, `
SELECT exercise_id, muscle_id, intensity, weight FROM exercise_muscles
`)
	if err != nil {
		return nil, fmt.Errorf("querying exercise muscles: %w", err)
	}
	defer rows.Close()

	var links []domain.ExerciseMuscle
	for rows.Next() {
		var em domain.ExerciseMuscle
		if err := rows.Scan(&em.ExerciseID, &em.MuscleID, &em.Intensity, &em.ExerciseMuscleWeight); err != nil {
			return nil, fmt.Errorf("scanning exercise muscle: %w", err)
		}
		links = append(links, em)
	}
	return links, rows.Err()
}

func loadRankLadder(ctx context.Context, db *sql.DB) ([]domain.Rank, []domain.InterRank, error) {
	rankRows, err := db.QueryContext(ctx, `SELECT id, name, min_score, max_score FROM ranks`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying ranks: %w", err)
	}
	defer rankRows.Close()

	var ranks []domain.Rank
	for rankRows.Next() {
		var r domain.Rank
		if err := rankRows.Scan(&r.ID, &r.Name, &r.MinScore, &r.MaxScore); err != nil {
			return nil, nil, fmt.Errorf("scanning rank: %w", err)
		}
		ranks = append(ranks, r)
	}
	if err := rankRows.Err(); err != nil {
		return nil, nil, err
	}

	interRows, err := db.QueryContext(ctx, `SELECT id, rank_id, min_score, max_score, sort_order FROM inter_ranks`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying inter ranks: %w", err)
	}
	defer interRows.Close()

	var interRanks []domain.InterRank
	for interRows.Next() {
		var ir domain.InterRank
		if err := interRows.Scan(&ir.ID, &ir.RankID, &ir.MinScore, &ir.MaxScore, &ir.SortOrder); err != nil {
			return nil, nil, fmt.Errorf("scanning inter rank: %w", err)
		}
		interRanks = append(interRanks, ir)
	}
	return ranks, interRanks, interRows.Err()
}

func loadBenchmarks(ctx context.Context, db *sql.DB) (exercise, muscle, muscleGroup, overall []domain.Benchmark, err error) {
	rows, err := db.QueryContext(ctx, `
SELECT gender, target_kind, target_id, min_threshold, rank_id FROM benchmarks
`)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("querying benchmarks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.Benchmark
		if err := rows.Scan(&b.Gender, &b.TargetKind, &b.TargetID, &b.MinThreshold, &b.RankID); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("scanning benchmark: %w", err)
		}
		switch b.TargetKind {
		case domain.BenchmarkTargetExercise:
			exercise = append(exercise, b)
		case domain.BenchmarkTargetMuscle:
			muscle = append(muscle, b)
		case domain.BenchmarkTargetMuscleGroup:
			muscleGroup = append(muscleGroup, b)
		case domain.BenchmarkTargetOverall:
			overall = append(overall, b)
		}
	}
	return exercise, muscle, muscleGroup, overall, rows.Err()
}
