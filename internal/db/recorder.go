package db

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder records one stage run in pipeline_runs. All methods are no-ops
// on a nil Recorder, so tools can record only when a database is requested.
type Recorder struct {
	pool  *pgxpool.Pool
	store *Store
	runID uuid.UUID
}

// StartRecording connects, applies migrations and opens a run for stage.
func StartRecording(ctx context.Context, stage string) (*Recorder, error) {
	pool, err := Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	store := NewStore(pool)
	id, err := store.StartRun(ctx, stage)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Printf("[DB] recording %s run %s", stage, id)
	return &Recorder{pool: pool, store: store, runID: id}, nil
}

func (r *Recorder) Store() *Store {
	if r == nil {
		return nil
	}
	return r.store
}

func (r *Recorder) RunID() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.runID
}

// Finish stores the final counters and closes the connection pool.
func (r *Recorder) Finish(ctx context.Context, counts RunCounts, runErr error) {
	if r == nil {
		return
	}
	defer r.pool.Close()
	if err := r.store.FinishRun(ctx, r.runID, counts, runErr); err != nil {
		log.Printf("[DB] %v", err)
	}
}
