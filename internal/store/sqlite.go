package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/house-rocket/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS boundary_cache (
	source     TEXT PRIMARY KEY,
	etag       TEXT NOT NULL DEFAULT '',
	data       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	listings       INTEGER NOT NULL,
	buy_candidates INTEGER NOT NULL,
	selected       INTEGER NOT NULL,
	total_gain     REAL NOT NULL,
	conditions     TEXT NOT NULL DEFAULT '[]',
	zipcodes       TEXT NOT NULL DEFAULT '[]',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_recommendations (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	listing_id INTEGER NOT NULL,
	zipcode    TEXT NOT NULL,
	season     TEXT NOT NULL,
	price      REAL NOT NULL,
	sale_price REAL NOT NULL,
	gain       REAL NOT NULL,
	PRIMARY KEY (run_id, listing_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
`

// Migrate creates the tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetBoundary returns the cached boundary file for source.
func (s *SQLiteStore) GetBoundary(ctx context.Context, source string) (*model.BoundarySnapshot, error) {
	var snap model.BoundarySnapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT source, etag, data, fetched_at FROM boundary_cache WHERE source = ?`,
		source,
	).Scan(&snap.Source, &snap.ETag, &snap.Data, &snap.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get boundary")
	}
	return &snap, nil
}

// PutBoundary inserts or replaces the cached boundary file.
func (s *SQLiteStore) PutBoundary(ctx context.Context, snap *model.BoundarySnapshot) error {
	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO boundary_cache (source, etag, data, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (source) DO UPDATE SET
			etag = excluded.etag,
			data = excluded.data,
			fetched_at = excluded.fetched_at`,
		snap.Source, snap.ETag, snap.Data, fetched.UTC(),
	)
	return eris.Wrap(err, "sqlite: put boundary")
}

// RecordRun stores a run and its recommendations in one transaction. A
// missing ID or CreatedAt is filled in on run.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *model.RunSummary, recs []model.RunRecommendation) error {
	prepareRun(run)

	conds, zips, err := marshalSelection(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal selection")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin record run")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, listings, buy_candidates, selected, total_gain, conditions, zipcodes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Listings, run.BuyCandidates, run.Selected, run.TotalGain,
		conds, zips, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_recommendations (run_id, listing_id, zipcode, season, price, sale_price, gain)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare recommendations")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, run.ID, r.ListingID, r.Zipcode, r.Season, r.Price, r.SalePrice, r.Gain); err != nil {
			return eris.Wrapf(err, "sqlite: insert recommendation %d", r.ListingID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit record run")
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error) {
	query := `SELECT id, source, listings, buy_candidates, selected, total_gain, conditions, zipcodes, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, listLimit(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// GetRun returns a run with its recommendations ordered by listing id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.RunDetail, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, source, listings, buy_candidates, selected, total_gain, conditions, zipcodes, created_at FROM runs WHERE id = ?`,
		runID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, listing_id, zipcode, season, price, sale_price, gain
		 FROM run_recommendations WHERE run_id = ? ORDER BY listing_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run recommendations")
	}
	defer rows.Close() //nolint:errcheck

	detail := &model.RunDetail{RunSummary: *r, Recommendations: []model.RunRecommendation{}}
	for rows.Next() {
		var rec model.RunRecommendation
		if err := rows.Scan(&rec.RunID, &rec.ListingID, &rec.Zipcode, &rec.Season, &rec.Price, &rec.SalePrice, &rec.Gain); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recommendation")
		}
		detail.Recommendations = append(detail.Recommendations, rec)
	}
	return detail, eris.Wrap(rows.Err(), "sqlite: get run recommendations iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRun passes sql.ErrNoRows through unwrapped so callers can detect it.
func scanRun(row scannable) (*model.RunSummary, error) {
	var (
		r           model.RunSummary
		conds, zips string
	)
	err := row.Scan(&r.ID, &r.Source, &r.Listings, &r.BuyCandidates, &r.Selected, &r.TotalGain, &conds, &zips, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := unmarshalSelection(&r, []byte(conds), []byte(zips)); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal selection")
	}
	return &r, nil
}

func prepareRun(run *model.RunSummary) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
}

func marshalSelection(run *model.RunSummary) (conds, zips []byte, err error) {
	c, z := run.Conditions, run.Zipcodes
	if c == nil {
		c = []string{}
	}
	if z == nil {
		z = []string{}
	}
	if conds, err = json.Marshal(c); err != nil {
		return nil, nil, err
	}
	if zips, err = json.Marshal(z); err != nil {
		return nil, nil, err
	}
	return conds, zips, nil
}

func unmarshalSelection(r *model.RunSummary, conds, zips []byte) error {
	if err := json.Unmarshal(conds, &r.Conditions); err != nil {
		return err
	}
	if err := json.Unmarshal(zips, &r.Zipcodes); err != nil {
		return err
	}
	if len(r.Conditions) == 0 {
		r.Conditions = nil
	}
	if len(r.Zipcodes) == 0 {
		r.Zipcodes = nil
	}
	return nil
}
