package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/house-rocket/internal/model"
)

// ListingSource supplies raw listings; *dataset.Loader implements it.
type ListingSource interface {
	Listings(ctx context.Context, path string) ([]model.Listing, error)
}

// Observer receives run measurements. *server.Metrics implements it.
type Observer interface {
	ObserveRun(elapsed time.Duration, listings, candidates int)
}

// Request carries the user filter for one run.
type Request struct {
	Filter Filter
}

// Result is everything the presentation layer renders for one run.
type Result struct {
	Listings  []model.Listing `json:"-"`
	Buy       []model.Listing `json:"buy"`
	Profit    []model.Listing `json:"profit"`
	Options   Options         `json:"options"`
	Selected  int             `json:"selected"`
	TotalGain float64         `json:"total_gain"`

	// Candidates is the unfiltered buy set.
	Candidates int `json:"candidates"`
}

// Pipeline recomputes recommendations from memoized raw listings on every
// Run.
type Pipeline struct {
	source   ListingSource
	path     string
	observer Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver reports each run to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// New creates a Pipeline over the listings at path.
func New(source ListingSource, path string, opts ...Option) *Pipeline {
	p := &Pipeline{source: source, path: path}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Path returns the listings file the pipeline reads.
func (p *Pipeline) Path() string { return p.path }

// Run loads the raw listings and computes a Result for the request.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	raw, err := p.source.Listings(ctx, p.path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load listings")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: run cancelled")
	}

	res := Compute(raw, req.Filter)

	elapsed := time.Since(start)
	if p.observer != nil {
		p.observer.ObserveRun(elapsed, len(res.Listings), res.Candidates)
	}
	zap.L().Debug("pipeline: run complete",
		zap.Int("listings", len(res.Listings)),
		zap.Int("candidates", res.Candidates),
		zap.Int("selected", res.Selected),
		zap.Float64("total_gain", res.TotalGain),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

// Compute runs every stage over raw listings without touching them.
func Compute(raw []model.Listing, f Filter) *Result {
	derived := DeriveAll(Clean(raw))
	classified := Classify(derived, RegionalMedians(derived))
	candidates := BuyCandidates(classified)
	seasonal := SeasonalMedians(candidates)

	buy := f.Apply(candidates)
	profit := Price(buy, seasonal)

	return &Result{
		Listings:   classified,
		Buy:        buy,
		Profit:     profit,
		Options:    FilterOptions(candidates),
		Selected:   len(buy),
		TotalGain:  TotalGain(profit),
		Candidates: len(candidates),
	}
}
