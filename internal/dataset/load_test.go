package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/house-rocket/internal/geo"
)

func writeListingsCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kc_house_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(listingsCSV), 0o644))
	return path
}

func writeListingsXLSX(t *testing.T) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("houses")
	require.NoError(t, err)

	rows := [][]string{
		{"id", "date", "price", "bedrooms", "bathrooms", "floors", "sqft_living", "sqft_lot", "sqft_above", "sqft_basement", "waterfront", "condition", "yr_built", "zipcode", "lat", "long"},
		{"1", "2014-05-02", "450000", "4", "2.5", "2", "2200", "6000", "2200", "0", "0", "4", "1999", "98052", "47.67", "-122.12"},
		{"2", "2014-08-20", "310000", "3", "1.75", "1", "1500", "7200", "1000", "500", "0", "3", "1962", "98052", "47.66", "-122.13"},
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "houses.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadListings_CSV(t *testing.T) {
	listings, err := LoadListings(context.Background(), writeListingsCSV(t))
	require.NoError(t, err)
	assert.Len(t, listings, 3)
}

func TestLoadListings_XLSX(t *testing.T) {
	listings, err := LoadListings(context.Background(), writeListingsXLSX(t))
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "98052", listings[0].Zipcode)
	assert.Equal(t, 2.5, listings[0].Bathrooms)
	assert.Equal(t, 500.0, listings[1].SqftBasement)
}

func TestLoadListings_Errors(t *testing.T) {
	_, err := LoadListings(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset: open listings")

	_, err = LoadListings(context.Background(), "houses.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported listings file")
}

func TestCache_LoadsOnceUnderConcurrency(t *testing.T) {
	c := NewCache[int]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Loads)
	assert.Equal(t, int64(19), stats.Hits)
}

func TestCache_ErrorsAreNotMemoized(t *testing.T) {
	c := NewCache[string]()
	boom := errors.New("boom")

	_, err := c.Get(context.Background(), "k", func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	v, err := c.Get(context.Background(), "k", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCache_KeysAreIndependent(t *testing.T) {
	c := NewCache[string]()
	a, _ := c.Get(context.Background(), "a", func(context.Context) (string, error) { return "A", nil })
	b, _ := c.Get(context.Background(), "b", func(context.Context) (string, error) { return "B", nil })
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}

type stubBoundaries struct {
	calls atomic.Int32
	err   error
}

func (s *stubBoundaries) Load(_ context.Context, source string) (*geo.Boundaries, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return geo.NewBoundaries(source, nil), nil
}

func TestLoader_LoadAll(t *testing.T) {
	stub := &stubBoundaries{}
	l := NewLoader(stub)
	path := writeListingsCSV(t)

	src, err := l.LoadAll(context.Background(), path, "zips.geojson")
	require.NoError(t, err)
	assert.Len(t, src.Listings, 3)
	assert.Equal(t, "zips.geojson", src.Boundaries.Source)

	again, err := l.LoadAll(context.Background(), path, "zips.geojson")
	require.NoError(t, err)
	assert.Same(t, src.Boundaries, again.Boundaries)
	assert.Same(t, &src.Listings[0], &again.Listings[0], "listings slice is shared")
	assert.Equal(t, int32(1), stub.calls.Load())

	listings, boundaries := l.Stats()
	assert.Equal(t, int64(1), listings.Loads)
	assert.Equal(t, int64(1), boundaries.Hits)
}

func TestLoader_LoadAllFailsOnEitherSource(t *testing.T) {
	stub := &stubBoundaries{err: errors.New("boundary source down")}
	_, err := NewLoader(stub).LoadAll(context.Background(), writeListingsCSV(t), "zips.geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boundary source down")

	_, err = NewLoader(&stubBoundaries{}).LoadAll(context.Background(), filepath.Join(t.TempDir(), "none.csv"), "zips.geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset: open listings")
}
