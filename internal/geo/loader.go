package geo

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/house-rocket/internal/fetcher"
	"github.com/sells-group/house-rocket/internal/model"
)

// SnapshotStore persists downloaded boundary files between processes.
// GetBoundary returns nil, nil when nothing is cached for the source.
type SnapshotStore interface {
	GetBoundary(ctx context.Context, source string) (*model.BoundarySnapshot, error)
	PutBoundary(ctx context.Context, snap *model.BoundarySnapshot) error
}

// Loader reads zipcode boundaries from a URL, a GeoJSON file, a shapefile,
// or a zipped shapefile.
type Loader struct {
	fetcher fetcher.Fetcher
	store   SnapshotStore
	ttl     time.Duration
	now     func() time.Time
}

// NewLoader creates a boundary Loader. store may be nil to disable the
// snapshot cache; ttl <= 0 keeps snapshots forever.
func NewLoader(f fetcher.Fetcher, store SnapshotStore, ttl time.Duration) *Loader {
	return &Loader{fetcher: f, store: store, ttl: ttl, now: time.Now}
}

// LoadBoundaries reads a boundary source with a default HTTP fetcher and no
// snapshot cache.
func LoadBoundaries(ctx context.Context, source string) (*Boundaries, error) {
	return NewLoader(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), nil, 0).Load(ctx, source)
}

// Load reads the boundary source and indexes it by zipcode.
func (l *Loader) Load(ctx context.Context, source string) (*Boundaries, error) {
	log := zap.L().With(zap.String("component", "geo.loader"), zap.String("source", source))

	var (
		fc  *geojson.FeatureCollection
		err error
	)
	switch {
	case isRemote(source) && hasExt(source, ".zip"):
		fc, err = l.loadRemoteShapefile(ctx, source)
	case isRemote(source):
		fc, err = l.loadRemoteGeoJSON(ctx, source)
	case hasExt(source, ".shp"):
		fc, err = ReadShapefile(source)
	case hasExt(source, ".zip"):
		fc, err = readZippedShapefile(source)
	case hasExt(source, ".geojson", ".json"):
		fc, err = readGeoJSONFile(source)
	default:
		return nil, eris.Errorf("geo: unsupported boundary source %q", source)
	}
	if err != nil {
		return nil, err
	}

	b := NewBoundaries(source, fc)
	log.Info("boundaries loaded", zap.Int("features", b.Len()), zap.Int("zipcodes", len(b.byZip)))
	return b, nil
}

func (l *Loader) loadRemoteGeoJSON(ctx context.Context, source string) (*geojson.FeatureCollection, error) {
	log := zap.L().With(zap.String("component", "geo.loader"), zap.String("source", source))

	var snap *model.BoundarySnapshot
	if l.store != nil {
		var err error
		snap, err = l.store.GetBoundary(ctx, source)
		if err != nil {
			log.Warn("geo: boundary cache lookup failed", zap.Error(err))
			snap = nil
		}
	}

	if snap != nil && !snap.Stale(l.ttl, l.now()) {
		log.Debug("geo: boundary cache hit")
		return decodeFeatureCollection(bytes.NewReader(snap.Data))
	}

	etag := ""
	if snap != nil {
		etag = snap.ETag
	}

	body, newETag, changed, err := l.fetcher.DownloadIfChanged(ctx, source, etag)
	if err != nil {
		if snap != nil {
			log.Warn("geo: refresh failed, using stale boundary cache", zap.Error(err))
			return decodeFeatureCollection(bytes.NewReader(snap.Data))
		}
		return nil, eris.Wrap(err, "geo: download boundaries")
	}

	if !changed {
		if snap == nil {
			return nil, eris.New("geo: 304 Not Modified without a cached boundary snapshot")
		}
		snap.FetchedAt = l.now().UTC()
		l.save(ctx, snap)
		return decodeFeatureCollection(bytes.NewReader(snap.Data))
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read boundaries")
	}
	fc, err := decodeFeatureCollection(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	l.save(ctx, &model.BoundarySnapshot{
		Source:    source,
		ETag:      newETag,
		Data:      data,
		FetchedAt: l.now().UTC(),
	})
	return fc, nil
}

func (l *Loader) save(ctx context.Context, snap *model.BoundarySnapshot) {
	if l.store == nil {
		return
	}
	if err := l.store.PutBoundary(ctx, snap); err != nil {
		zap.L().Warn("geo: boundary cache write failed",
			zap.String("source", snap.Source),
			zap.Error(err),
		)
	}
}

func (l *Loader) loadRemoteShapefile(ctx context.Context, source string) (*geojson.FeatureCollection, error) {
	tmp, err := os.MkdirTemp("", "house-rocket-boundaries-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create temp dir")
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	zipPath := filepath.Join(tmp, "boundaries.zip")
	if _, err := l.fetcher.DownloadToFile(ctx, source, zipPath); err != nil {
		return nil, eris.Wrap(err, "geo: download shapefile")
	}
	return readZippedShapefile(zipPath)
}

func readGeoJSONFile(path string) (*geojson.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open boundary file")
	}
	defer f.Close() //nolint:errcheck
	return decodeFeatureCollection(f)
}

func decodeFeatureCollection(r io.Reader) (*geojson.FeatureCollection, error) {
	fc, err := fetcher.DecodeJSONObject[geojson.FeatureCollection](r)
	if err != nil {
		return nil, eris.Wrap(err, "geo: decode feature collection")
	}
	return fc, nil
}

func isRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// hasExt matches the extension of a path or of a URL path.
func hasExt(source string, exts ...string) bool {
	p := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
