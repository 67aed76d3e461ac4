package geo

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ReadShapefile converts a polygon shapefile into a feature collection.
// Every attribute becomes a string property of its feature.
func ReadShapefile(path string) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}
	if fieldIndex(reader, "ZIP") < 0 && fieldIndex(reader, "ZIPCODE") < 0 && fieldIndex(reader, "ZCTA5CE10") < 0 {
		zap.L().Warn("geo: shapefile has no zipcode field", zap.String("path", path), zap.Strings("fields", names))
	}

	fc := &geojson.FeatureCollection{}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		g := polygonToMultiPolygon(poly)
		if g == nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(names))
		for i, name := range names {
			props[name] = strings.TrimSpace(reader.Attribute(i))
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: g, Properties: props})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "geo: read shapefile")
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped non-polygon shapes", zap.String("path", path), zap.Int("skipped", skipped))
	}
	return fc, nil
}

// readZippedShapefile extracts a zip archive and reads the first .shp inside.
func readZippedShapefile(zipPath string) (*geojson.FeatureCollection, error) {
	dir, err := os.MkdirTemp("", "house-rocket-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create extract dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	if err := extractZIP(zipPath, dir); err != nil {
		return nil, eris.Wrap(err, "geo: extract shapefile zip")
	}
	shpPath, err := findFileByExt(dir, ".shp")
	if err != nil {
		return nil, eris.Wrap(err, "geo: find .shp file")
	}
	return ReadShapefile(shpPath)
}

// extractZIP flattens a zip archive into destDir.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "create %s", dest)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "extract %s", f.Name)
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon turns each shapefile part into one polygon.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
