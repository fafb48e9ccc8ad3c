// Package refcatalog caches the static reference tables (exercises,
// muscles, muscle groups, exercise-muscle weights, ranks, inter-ranks,
// benchmarks) that every ranking pipeline call needs but that change at
// most a few times a day. A cold miss loads straight from Postgres and
// is then held until the TTL expires or Refresh is called explicitly.
package refcatalog

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"rankcalc/internal/domain"
)

// DefaultTTL is how long a loaded snapshot is served before the next Get
// triggers a reload.
const DefaultTTL = 24 * time.Hour

// Snapshot is the full reference dataset as of one load.
type Snapshot struct {
	Exercises             map[uuid.UUID]domain.Exercise
	Muscles               []domain.Muscle
	MuscleGroups          []domain.MuscleGroup
	ExerciseMuscles       []domain.ExerciseMuscle
	Ranks                 []domain.Rank
	InterRanks            []domain.InterRank
	ExerciseBenchmarks    []domain.Benchmark
	MuscleBenchmarks      []domain.Benchmark
	MuscleGroupBenchmarks []domain.Benchmark
	OverallBenchmarks     []domain.Benchmark

	loadedAt time.Time
}

type cachedSnapshot struct {
	snapshot  Snapshot
	expiresAt time.Time
}

// Catalog holds the single cached Snapshot behind a mutex, reloading it
// from Postgres on expiry. Concurrent cold misses are coalesced with a
// singleflight.Group so a cache-expiry burst issues exactly one reload.
type Catalog struct {
	db    *sql.DB
	ttl   time.Duration
	mu    sync.RWMutex
	cache *cachedSnapshot
	group singleflight.Group
}

// New builds a Catalog against db with the default TTL.
func New(db *sql.DB) *Catalog {
	return &Catalog{db: db, ttl: DefaultTTL}
}

// WithTTL overrides the default reload interval, used by tests that need a
// short-lived cache to observe a reload.
func (c *Catalog) WithTTL(ttl time.Duration) *Catalog {
	c.ttl = ttl
	return c
}

func (c *Catalog) get() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cache == nil || time.Now().After(c.cache.expiresAt) {
		return Snapshot{}, false
	}
	return c.cache.snapshot, true
}

func (c *Catalog) set(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap.loadedAt = time.Now()
	c.cache = &cachedSnapshot{
		snapshot:  snap,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Get returns the current Snapshot, loading it from Postgres on a cold or
// expired cache. Concurrent callers during a reload share one query set.
func (c *Catalog) Get(ctx context.Context) (Snapshot, error) {
	if snap, ok := c.get(); ok {
		return snap, nil
	}

	v, err, _ := c.group.Do("snapshot", func() (any, error) {
		if snap, ok := c.get(); ok {
			return snap, nil
		}
		snap, err := c.load(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		c.set(snap)
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Prewarm loads the Snapshot eagerly, fanning the six reference loads out
// concurrently, and returns the first load error. Call this once at startup so the first ranking
// request never pays a cold-load latency penalty.
func (c *Catalog) Prewarm(ctx context.Context) error {
	snap, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.set(snap)
	return nil
}

// Refresh forces the next Get to reload from Postgres regardless of TTL,
// used after an admin edits the reference tables out of band.
func (c *Catalog) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = nil
}

func (c *Catalog) load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		exercises, err := loadExercises(gctx, c.db)
		if err != nil {
			return err
		}
		snap.Exercises = exercises
		return nil
	})
	g.Go(func() error {
		muscles, err := loadMuscles(gctx, c.db)
		if err != nil {
			return err
		}
		snap.Muscles = muscles
		return nil
	})
	g.Go(func() error {
		groups, err := loadMuscleGroups(gctx, c.db)
		if err != nil {
			return err
		}
		snap.MuscleGroups = groups
		return nil
	})
	g.Go(func() error {
		exerciseMuscles, err := loadExerciseMuscles(gctx, c.db)
		if err != nil {
			return err
		}
		snap.ExerciseMuscles = exerciseMuscles
		return nil
	})
	g.Go(func() error {
		ranks, interRanks, err := loadRankLadder(gctx, c.db)
		if err != nil {
			return err
		}
		snap.Ranks = ranks
		snap.InterRanks = interRanks
		return nil
	})
	g.Go(func() error {
		exerciseBM, muscleBM, groupBM, overallBM, err := loadBenchmarks(gctx, c.db)
		if err != nil {
			return err
		}
		snap.ExerciseBenchmarks = exerciseBM
		snap.MuscleBenchmarks = muscleBM
		snap.MuscleGroupBenchmarks = groupBM
		snap.OverallBenchmarks = overallBM
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}
