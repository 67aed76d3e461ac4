// Package dataset loads the house-sale listings and memoizes every source
// for the life of the process.
package dataset

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/house-rocket/internal/fetcher"
	"github.com/sells-group/house-rocket/internal/model"
)

// ErrMissingColumn is returned when the listings header lacks a required column.
var ErrMissingColumn = eris.New("dataset: missing required column")

// Columns lists the listing columns the loader maps by header name.
var Columns = []string{
	"id", "date", "price", "bedrooms", "bathrooms", "floors",
	"sqft_living", "sqft_lot", "sqft_above", "sqft_basement",
	"waterfront", "condition", "yr_built", "zipcode", "lat", "long",
}

var dateLayouts = []string{
	"20060102T150405",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
}

// ParseListings reads a listings CSV with a header row from r.
func ParseListings(ctx context.Context, r io.Reader) ([]model.Listing, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	var (
		m        columnMap
		listings []model.Listing
		parseErr error
		line     = 1
	)
	for row := range rowCh {
		line++
		if parseErr != nil {
			continue // drain so the producer can exit
		}
		if m == nil {
			// The header is sent before the first row.
			if m, parseErr = mapHeader(<-headerCh); parseErr != nil {
				continue
			}
		}
		l, err := m.listing(row)
		if err != nil {
			parseErr = eris.Wrapf(err, "dataset: line %d", line)
			continue
		}
		listings = append(listings, l)
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read listings")
		}
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if m == nil {
		select {
		case header := <-headerCh:
			if _, err := mapHeader(header); err != nil {
				return nil, err
			}
		default:
			return nil, eris.New("dataset: listings file is empty")
		}
	}
	return listings, nil
}

// parseRows maps already-split rows (header first) to listings.
func parseRows(rows [][]string) ([]model.Listing, error) {
	if len(rows) == 0 {
		return nil, eris.New("dataset: listings sheet is empty")
	}
	m, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}
	listings := make([]model.Listing, 0, len(rows)-1)
	for i, row := range rows[1:] {
		l, err := m.listing(row)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: row %d", i+2)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// columnMap holds the index of each known column in the header.
type columnMap map[string]int

func mapHeader(header []string) (columnMap, error) {
	m := make(columnMap, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, col := range Columns {
		if _, ok := m[col]; !ok {
			return nil, eris.Wrapf(ErrMissingColumn, "column %q", col)
		}
	}
	return m, nil
}

func (m columnMap) get(row []string, col string) string {
	idx := m[col]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (m columnMap) listing(row []string) (model.Listing, error) {
	var (
		l   model.Listing
		err error
	)

	num := func(col string) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = parseNumber(m.get(row, col))
		if err != nil {
			err = eris.Wrapf(err, "column %q", col)
		}
		return v
	}

	l.ID = int64(num("id"))
	l.Price = num("price")
	l.Bedrooms = int(num("bedrooms"))
	l.Bathrooms = num("bathrooms")
	l.Floors = num("floors")
	l.SqftLiving = num("sqft_living")
	l.SqftLot = num("sqft_lot")
	l.SqftBasement = num("sqft_basement")
	l.Condition = int(num("condition"))
	l.YrBuilt = int(num("yr_built"))
	l.Lat = num("lat")
	l.Long = num("long")
	if err != nil {
		return model.Listing{}, err
	}

	if raw := m.get(row, "sqft_above"); !isMissing(raw) {
		v, perr := parseNumber(raw)
		if perr != nil {
			return model.Listing{}, eris.Wrap(perr, `column "sqft_above"`)
		}
		l.SqftAbove = &v
	}

	l.Date, err = parseDate(m.get(row, "date"))
	if err != nil {
		return model.Listing{}, err
	}

	l.Waterfront = m.get(row, "waterfront")
	l.Zipcode = model.NormalizeZip(m.get(row, "zipcode"))
	return l, nil
}

// isMissing reports whether a raw cell stands for an absent value.
func isMissing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}

func parseNumber(s string) (float64, error) {
	if isMissing(s) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse number %q", s)
	}
	if math.IsNaN(v) {
		return 0, nil
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, eris.New(`column "date": empty value`)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf(`column "date": unrecognized date %q`, s)
}
