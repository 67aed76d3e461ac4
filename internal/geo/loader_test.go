package geo

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/house-rocket/internal/fetcher"
	"github.com/sells-group/house-rocket/internal/model"
)

type memSnapshots struct {
	mu     sync.Mutex
	snaps  map[string]*model.BoundarySnapshot
	getErr error
	puts   int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{snaps: map[string]*model.BoundarySnapshot{}}
}

func (m *memSnapshots) GetBoundary(_ context.Context, source string) (*model.BoundarySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.snaps[source]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSnapshots) PutBoundary(_ context.Context, snap *model.BoundarySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snap
	m.snaps[snap.Source] = &cp
	m.puts++
	return nil
}

func newTestLoader(store SnapshotStore, ttl time.Duration) *Loader {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:     5 * time.Second,
		MaxRetries:  1,
		BaseBackoff: time.Millisecond,
		HostRate:    1000,
	})
	return NewLoader(f, store, ttl)
}

func boundaryServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(sampleBoundaries)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoad_GeoJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zips.geojson")
	require.NoError(t, os.WriteFile(path, []byte(sampleBoundaries), 0o644))

	b, err := newTestLoader(nil, 0).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, b.Source)
	assert.Equal(t, []string{"98001", "98125", "98178"}, b.Zipcodes())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := newTestLoader(nil, 0).Load(context.Background(), filepath.Join(t.TempDir(), "nope.geojson"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo: open boundary file")
}

func TestLoad_InvalidGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := newTestLoader(nil, 0).Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo: decode feature collection")
}

func TestLoad_UnsupportedSource(t *testing.T) {
	_, err := newTestLoader(nil, 0).Load(context.Background(), "zips.kml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported boundary source")
}

func TestLoad_RemoteCachesSnapshot(t *testing.T) {
	var hits atomic.Int32
	srv := boundaryServer(t, &hits)
	store := newMemSnapshots()
	l := newTestLoader(store, time.Hour)

	b, err := l.Load(context.Background(), srv.URL+"/zips.geojson")
	require.NoError(t, err)
	assert.Equal(t, 3, len(b.Zipcodes()))
	assert.Equal(t, int32(1), hits.Load())

	snap, err := store.GetBoundary(context.Background(), srv.URL+"/zips.geojson")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, `"v1"`, snap.ETag)

	// Fresh snapshot: no network.
	_, err = l.Load(context.Background(), srv.URL+"/zips.geojson")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoad_RemoteStaleSnapshotRevalidates(t *testing.T) {
	var hits atomic.Int32
	srv := boundaryServer(t, &hits)
	source := srv.URL + "/zips.geojson"

	store := newMemSnapshots()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutBoundary(context.Background(), &model.BoundarySnapshot{
		Source: source, ETag: `"v1"`, Data: []byte(sampleBoundaries), FetchedAt: old,
	}))

	l := newTestLoader(store, time.Hour)
	b, err := l.Load(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 3, len(b.Zipcodes()))
	assert.Equal(t, int32(1), hits.Load())

	snap, _ := store.GetBoundary(context.Background(), source)
	assert.True(t, snap.FetchedAt.After(old), "304 refreshes the fetch time")
}

func TestLoad_RemoteFailureUsesStaleSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	source := srv.URL + "/zips.geojson"

	store := newMemSnapshots()
	require.NoError(t, store.PutBoundary(context.Background(), &model.BoundarySnapshot{
		Source: source, Data: []byte(sampleBoundaries), FetchedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	b, err := newTestLoader(store, time.Hour).Load(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
}

func TestLoad_RemoteFailureWithoutSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestLoader(newMemSnapshots(), time.Hour).Load(context.Background(), srv.URL+"/zips.geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo: download boundaries")
}

func TestLoad_NotModifiedWithoutSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	for name, store := range map[string]SnapshotStore{"no store": nil, "empty store": newMemSnapshots()} {
		t.Run(name, func(t *testing.T) {
			b, err := newTestLoader(store, time.Hour).Load(context.Background(), srv.URL+"/zips.geojson")
			require.Error(t, err)
			assert.Nil(t, b)
			assert.Contains(t, err.Error(), "without a cached boundary snapshot")
		})
	}
}

func TestLoad_StoreLookupErrorFallsBackToNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := boundaryServer(t, &hits)
	store := newMemSnapshots()
	store.getErr = errors.New("db down")

	b, err := newTestLoader(store, time.Hour).Load(context.Background(), srv.URL+"/zips.geojson")
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, int32(1), hits.Load())
}

// writeTestShapefile writes a two-feature polygon shapefile with a ZIP field.
func writeTestShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "zips.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("ZIP", 5), shp.StringField("NAME", 20)}))

	squares := []struct {
		zip, name string
		x, y      float64
	}{
		{"98178", "Rainier", -122.3, 47.4},
		{"98125", "Lake City", -122.4, 47.7},
	}
	for i, sq := range squares {
		pts := []shp.Point{
			{X: sq.x, Y: sq.y}, {X: sq.x + 0.1, Y: sq.y}, {X: sq.x + 0.1, Y: sq.y + 0.1},
			{X: sq.x, Y: sq.y + 0.1}, {X: sq.x, Y: sq.y},
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{pts}))
		w.Write(&poly)
		require.NoError(t, w.WriteAttribute(i, 0, sq.zip))
		require.NoError(t, w.WriteAttribute(i, 1, sq.name))
	}
	w.Close()
	return path
}

func zipDir(t *testing.T, srcDir, dest string) {
	t.Helper()
	out, err := os.Create(dest)
	require.NoError(t, err)
	defer out.Close() //nolint:errcheck

	zw := zip.NewWriter(out)
	entries, err := os.ReadDir(srcDir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		require.NoError(t, err)
		fw, err := zw.Create("nested/" + e.Name())
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestLoad_Shapefile(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	b, err := newTestLoader(nil, 0).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"98125", "98178"}, b.Zipcodes())

	f, ok := b.Zip("98178")
	require.True(t, ok)
	assert.Equal(t, "Rainier", f.Properties["NAME"])
	require.NotNil(t, f.Geometry)
}

func TestLoad_ZippedShapefile(t *testing.T) {
	shpDir := t.TempDir()
	writeTestShapefile(t, shpDir)
	zipPath := filepath.Join(t.TempDir(), "zips.zip")
	zipDir(t, shpDir, zipPath)

	b, err := newTestLoader(nil, 0).Load(context.Background(), zipPath)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
}

func TestLoad_RemoteZippedShapefile(t *testing.T) {
	shpDir := t.TempDir()
	writeTestShapefile(t, shpDir)
	zipPath := filepath.Join(t.TempDir(), "zips.zip")
	zipDir(t, shpDir, zipPath)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, zipPath)
	}))
	defer srv.Close()

	b, err := newTestLoader(nil, 0).Load(context.Background(), srv.URL+"/download/zips.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"98125", "98178"}, b.Zipcodes())
}

func TestFindFileByExt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ZIPS.SHP"), nil, 0o644))

	got, err := findFileByExt(dir, ".shp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ZIPS.SHP"), got)

	_, err = findFileByExt(dir, ".dbf")
	assert.Error(t, err)
}

func TestHasExt(t *testing.T) {
	assert.True(t, hasExt("https://example.com/a/zips.GeoJSON?x=1", ".geojson"))
	assert.True(t, hasExt("/tmp/zips.zip", ".zip"))
	assert.False(t, hasExt("/tmp/zips", ".zip"))
	assert.True(t, isRemote("http://example.com"))
	assert.False(t, isRemote("/tmp/zips.geojson"))
}
