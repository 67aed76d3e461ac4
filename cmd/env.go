package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/house-rocket/internal/dataset"
	"github.com/sells-group/house-rocket/internal/fetcher"
	"github.com/sells-group/house-rocket/internal/geo"
	"github.com/sells-group/house-rocket/internal/pipeline"
	"github.com/sells-group/house-rocket/internal/store"
)

// appEnv holds the loaders, store and pipeline shared by the commands.
type appEnv struct {
	Store      store.Store // nil when store.driver is "none"
	Boundaries *geo.Loader
	Loader     *dataset.Loader
	Pipeline   *pipeline.Pipeline
}

// Close releases the store.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config for mode, opens the store and wires the loaders
// and pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, opts ...pipeline.Option) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	env := &appEnv{Store: st}
	env.Boundaries = newBoundaryLoader(st, time.Duration(cfg.Data.BoundaryCacheTTLHours)*time.Hour)
	env.Loader = dataset.NewLoader(env.Boundaries)
	env.Pipeline = pipeline.New(env.Loader, cfg.Data.ListingsPath, opts...)
	return env, nil
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})
}

// newBoundaryLoader caches remote boundary files in st when a store is
// configured.
func newBoundaryLoader(st store.Store, ttl time.Duration) *geo.Loader {
	var snapshots geo.SnapshotStore
	if st != nil {
		snapshots = st
	}
	return geo.NewLoader(newFetcher(), snapshots, ttl)
}

// runPipeline computes a result for the filter, optionally recording it.
func runPipeline(ctx context.Context, env *appEnv, f pipeline.Filter, record bool) (*pipeline.Result, error) {
	res, err := env.Pipeline.Run(ctx, pipeline.Request{Filter: f})
	if err != nil {
		return nil, err
	}
	if !record {
		return res, nil
	}
	if env.Store == nil {
		return nil, eris.New("--record needs a store; store.driver is none")
	}
	run, recs := pipeline.Record(env.Pipeline.Path(), f, res)
	if err := env.Store.RecordRun(ctx, run, recs); err != nil {
		return nil, eris.Wrap(err, "record run")
	}
	return res, nil
}
