package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/house-rocket/internal/fetcher"
	"github.com/sells-group/house-rocket/internal/geo"
	"github.com/sells-group/house-rocket/internal/model"
)

// LoadListings reads a listings file. CSV files are streamed; XLSX files are
// read from their first sheet.
func LoadListings(ctx context.Context, path string) ([]model.Listing, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: open listings")
		}
		defer f.Close() //nolint:errcheck
		return ParseListings(ctx, f)
	case ".xlsx":
		rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read listings workbook")
		}
		return parseRows(rows)
	default:
		return nil, eris.Errorf("dataset: unsupported listings file %q", path)
	}
}

// BoundarySource loads zipcode boundaries; *geo.Loader implements it.
type BoundarySource interface {
	Load(ctx context.Context, source string) (*geo.Boundaries, error)
}

// Sources is everything a recommendation run reads.
type Sources struct {
	Listings   []model.Listing
	Boundaries *geo.Boundaries
}

// Loader memoizes listings and boundaries by source for the process
// lifetime. Returned values are shared and must not be modified.
type Loader struct {
	boundaries BoundarySource
	listings   *Cache[[]model.Listing]
	zips       *Cache[*geo.Boundaries]
}

// NewLoader creates a Loader reading boundaries through b.
func NewLoader(b BoundarySource) *Loader {
	return &Loader{
		boundaries: b,
		listings:   NewCache[[]model.Listing](),
		zips:       NewCache[*geo.Boundaries](),
	}
}

// Listings returns the listings at path, loading them on first use.
func (l *Loader) Listings(ctx context.Context, path string) ([]model.Listing, error) {
	return l.listings.Get(ctx, path, func(ctx context.Context) ([]model.Listing, error) {
		start := time.Now()
		out, err := LoadListings(ctx, path)
		if err != nil {
			return nil, err
		}
		zap.L().Info("listings loaded",
			zap.String("component", "dataset"),
			zap.String("path", path),
			zap.Int("rows", len(out)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return out, nil
	})
}

// Boundaries returns the zipcode boundaries at source, loading them on first use.
func (l *Loader) Boundaries(ctx context.Context, source string) (*geo.Boundaries, error) {
	return l.zips.Get(ctx, source, func(ctx context.Context) (*geo.Boundaries, error) {
		return l.boundaries.Load(ctx, source)
	})
}

// LoadAll loads listings and boundaries concurrently. Either failure fails
// the whole load.
func (l *Loader) LoadAll(ctx context.Context, listingsPath, boundarySource string) (*Sources, error) {
	var src Sources
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src.Listings, err = l.Listings(gctx, listingsPath)
		return err
	})
	g.Go(func() error {
		var err error
		src.Boundaries, err = l.Boundaries(gctx, boundarySource)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "dataset: load sources")
	}
	return &src, nil
}

// Stats reports cache activity for listings and boundaries.
func (l *Loader) Stats() (listings, boundaries CacheStats) {
	return l.listings.Stats(), l.zips.Stats()
}
