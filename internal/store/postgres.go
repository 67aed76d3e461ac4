package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/house-rocket/internal/db"
	"github.com/sells-group/house-rocket/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var recommendationColumns = []string{
	"run_id", "listing_id", "zipcode", "season", "price", "sale_price", "gain",
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS boundary_cache (
	source     TEXT PRIMARY KEY,
	etag       TEXT NOT NULL DEFAULT '',
	data       BYTEA NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source         TEXT NOT NULL,
	listings       INTEGER NOT NULL,
	buy_candidates INTEGER NOT NULL,
	selected       INTEGER NOT NULL,
	total_gain     DOUBLE PRECISION NOT NULL,
	conditions     JSONB NOT NULL DEFAULT '[]',
	zipcodes       JSONB NOT NULL DEFAULT '[]',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_recommendations (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	listing_id BIGINT NOT NULL,
	zipcode    TEXT NOT NULL,
	season     TEXT NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	sale_price DOUBLE PRECISION NOT NULL,
	gain       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, listing_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
`

// Migrate creates the tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// GetBoundary returns the cached boundary file for source.
func (s *PostgresStore) GetBoundary(ctx context.Context, source string) (*model.BoundarySnapshot, error) {
	var snap model.BoundarySnapshot
	err := s.pool.QueryRow(ctx,
		`SELECT source, etag, data, fetched_at FROM boundary_cache WHERE source = $1`,
		source,
	).Scan(&snap.Source, &snap.ETag, &snap.Data, &snap.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get boundary")
	}
	return &snap, nil
}

// PutBoundary inserts or replaces the cached boundary file.
func (s *PostgresStore) PutBoundary(ctx context.Context, snap *model.BoundarySnapshot) error {
	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO boundary_cache (source, etag, data, fetched_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (source) DO UPDATE SET
			etag = EXCLUDED.etag,
			data = EXCLUDED.data,
			fetched_at = EXCLUDED.fetched_at`,
		snap.Source, snap.ETag, snap.Data, fetched.UTC(),
	)
	return eris.Wrap(err, "postgres: put boundary")
}

// RecordRun inserts the run and bulk-loads its recommendations with COPY
// inside one transaction.
func (s *PostgresStore) RecordRun(ctx context.Context, run *model.RunSummary, recs []model.RunRecommendation) error {
	prepareRun(run)

	conds, zips, err := marshalSelection(run)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal selection")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin record run")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, source, listings, buy_candidates, selected, total_gain, conditions, zipcodes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.Source, run.Listings, run.BuyCandidates, run.Selected, run.TotalGain,
		conds, zips, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{run.ID, r.ListingID, r.Zipcode, r.Season, r.Price, r.SalePrice, r.Gain})
	}
	if _, err := db.CopyFrom(ctx, tx, "run_recommendations", recommendationColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: copy recommendations")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit record run")
}

// ListRuns returns runs newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error) {
	query := `SELECT id, source, listings, buy_candidates, selected, total_gain, conditions, zipcodes, created_at FROM runs WHERE 1=1`
	var args []any
	argN := 1

	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argN)
		args = append(args, filter.Source)
		argN++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", argN)
	args = append(args, listLimit(filter.Limit))
	argN++
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argN)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// GetRun returns a run with its recommendations ordered by listing id.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.RunDetail, error) {
	r, err := scanPostgresRun(s.pool.QueryRow(ctx,
		`SELECT id, source, listings, buy_candidates, selected, total_gain, conditions, zipcodes, created_at FROM runs WHERE id = $1`,
		runID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT run_id, listing_id, zipcode, season, price, sale_price, gain
		 FROM run_recommendations WHERE run_id = $1 ORDER BY listing_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run recommendations")
	}
	defer rows.Close()

	detail := &model.RunDetail{RunSummary: *r, Recommendations: []model.RunRecommendation{}}
	for rows.Next() {
		var rec model.RunRecommendation
		if err := rows.Scan(&rec.RunID, &rec.ListingID, &rec.Zipcode, &rec.Season, &rec.Price, &rec.SalePrice, &rec.Gain); err != nil {
			return nil, eris.Wrap(err, "postgres: scan recommendation")
		}
		detail.Recommendations = append(detail.Recommendations, rec)
	}
	return detail, eris.Wrap(rows.Err(), "postgres: get run recommendations iterate")
}

// scanPostgresRun passes pgx.ErrNoRows through unwrapped.
func scanPostgresRun(row pgx.Row) (*model.RunSummary, error) {
	var (
		r           model.RunSummary
		conds, zips []byte
	)
	err := row.Scan(&r.ID, &r.Source, &r.Listings, &r.BuyCandidates, &r.Selected, &r.TotalGain, &conds, &zips, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	if err := unmarshalSelection(&r, conds, zips); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal selection")
	}
	return &r, nil
}
