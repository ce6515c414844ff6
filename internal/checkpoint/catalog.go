package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Record is one cataloged checkpoint.
type Record struct {
	ID        int64
	RunID     string
	Step      int64
	Path      string
	Digest    string
	CreatedAt time.Time
}

// CatalogRepo records written checkpoints so restart can find the newest
// valid one without scanning the checkpoint directory.
type CatalogRepo struct {
	db *DB
}

func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// Add inserts one checkpoint record.
func (r *CatalogRepo) Add(ctx context.Context, rec Record) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO checkpoints (run_id, step, path, digest)
		 VALUES ($1, $2, $3, $4)`,
		rec.RunID, rec.Step, rec.Path, rec.Digest,
	)
	if err != nil {
		return fmt.Errorf("catalog insert: %w", err)
	}
	return nil
}

// Latest returns the newest checkpoint of a run, or (nil, nil) if the run
// has none.
func (r *CatalogRepo) Latest(ctx context.Context, runID string) (*Record, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT id, run_id, step, path, digest, created_at
		 FROM checkpoints WHERE run_id = $1
		 ORDER BY step DESC LIMIT 1`,
		runID,
	)
	var rec Record
	err := row.Scan(&rec.ID, &rec.RunID, &rec.Step, &rec.Path, &rec.Digest, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog latest: %w", err)
	}
	return &rec, nil
}

// ListRun returns all checkpoints of a run, oldest first.
func (r *CatalogRepo) ListRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, run_id, step, path, digest, created_at
		 FROM checkpoints WHERE run_id = $1
		 ORDER BY step ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Step, &rec.Path, &rec.Digest, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
