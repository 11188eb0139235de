package checkpoint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/pricemap/pkg/errors"
)

const schema = `CREATE TABLE IF NOT EXISTS pricemap_checkpoints (
	name             TEXT PRIMARY KEY,
	last_batch_index INTEGER NOT NULL,
	run_id           UUID NOT NULL,
	catalog_digest   TEXT NOT NULL DEFAULT '',
	catalog_size     INTEGER NOT NULL DEFAULT 0,
	batch_size       INTEGER NOT NULL DEFAULT 0,
	results          JSONB NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps named checkpoints in a PostgreSQL table. Each save is a
// single upsert, so a checkpoint is always replaced as a whole.
type PostgresStore struct {
	pool *pgxpool.Pool
	name string
}

// ConnectPostgres opens a pool for databaseURL, verifies it, and makes sure
// the checkpoint table exists.
func ConnectPostgres(ctx context.Context, databaseURL, name string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.WrapPersistence("connect", "postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapPersistence("ping", "postgres", err)
	}

	s := NewPostgresStore(pool, name)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore returns a store for the checkpoint called name.
func NewPostgresStore(pool *pgxpool.Pool, name string) *PostgresStore {
	return &PostgresStore{pool: pool, name: name}
}

// EnsureSchema creates the checkpoint table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return errors.WrapPersistence("migrate", "pricemap_checkpoints", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Load returns the named checkpoint, or nil when there is none.
func (s *PostgresStore) Load(ctx context.Context) (*Checkpoint, error) {
	var (
		cp        Checkpoint
		results   []byte
		updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT last_batch_index, run_id, catalog_digest, catalog_size, batch_size, results, updated_at
		 FROM pricemap_checkpoints WHERE name = $1`,
		s.name,
	).Scan(&cp.LastBatchIndex, &cp.RunID, &cp.CatalogDigest, &cp.CatalogSize, &cp.BatchSize, &results, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WrapPrecondition("checkpoint", "cannot read checkpoint "+s.name,
			errors.WrapPersistence("load", s.name, err))
	}
	cp.UpdatedAt = utc.New(updatedAt)
	if err := json.Unmarshal(results, &cp.Results); err != nil {
		return nil, errors.WrapPrecondition("checkpoint", "cannot decode checkpoint "+s.name,
			errors.WrapParse("json", s.name, err))
	}
	return &cp, nil
}

// Save upserts the named checkpoint.
func (s *PostgresStore) Save(ctx context.Context, cp *Checkpoint) error {
	results, err := json.Marshal(cp.Results)
	if err != nil {
		return errors.WrapPersistence("encode", s.name, err)
	}
	runID := cp.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricemap_checkpoints
		   (name, last_batch_index, run_id, catalog_digest, catalog_size, batch_size, results, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (name) DO UPDATE SET
		   last_batch_index = EXCLUDED.last_batch_index,
		   run_id = EXCLUDED.run_id,
		   catalog_digest = EXCLUDED.catalog_digest,
		   catalog_size = EXCLUDED.catalog_size,
		   batch_size = EXCLUDED.batch_size,
		   results = EXCLUDED.results,
		   updated_at = EXCLUDED.updated_at`,
		s.name, cp.LastBatchIndex, runID, cp.CatalogDigest, cp.CatalogSize, cp.BatchSize, results, cp.UpdatedAt.Time,
	)
	if err != nil {
		return errors.WrapPersistence("save", s.name, err)
	}
	return nil
}

// Delete removes the named checkpoint.
func (s *PostgresStore) Delete(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM pricemap_checkpoints WHERE name = $1`, s.name); err != nil {
		return errors.WrapPersistence("delete", s.name, err)
	}
	return nil
}
