// Package store persists boundary snapshots and recommendation run history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/house-rocket/internal/model"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// defaultListLimit caps ListRuns when no limit is given.
const defaultListLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface. Lookups of missing rows return
// nil with a nil error.
type Store interface {
	// Boundary cache
	GetBoundary(ctx context.Context, source string) (*model.BoundarySnapshot, error)
	PutBoundary(ctx context.Context, snap *model.BoundarySnapshot) error

	// Run history
	RecordRun(ctx context.Context, run *model.RunSummary, recs []model.RunRecommendation) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*model.RunDetail, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured driver and migrates it. The "none" driver
// and an empty driver return a nil Store.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case DriverNone, "":
		return nil, nil
	case DriverSQLite:
		st, err = NewSQLite(dsn)
	case DriverPostgres:
		st, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
