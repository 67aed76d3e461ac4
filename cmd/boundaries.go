package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Manage the zipcode boundary cache",
}

var boundariesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Revalidate the cached boundary file against its source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = cfg.Data.BoundaryURL
		}

		// Any cached snapshot counts as stale, so the source is always asked.
		loader := newBoundaryLoader(env.Store, time.Nanosecond)
		start := time.Now()
		b, err := loader.Load(ctx, source)
		if err != nil {
			return eris.Wrap(err, "boundaries refresh")
		}

		zap.L().Info("boundaries refreshed",
			zap.String("source", source),
			zap.Int("features", b.Len()),
			zap.Duration("elapsed", time.Since(start)),
		)
		if env.Store == nil {
			_, _ = fmt.Fprintln(os.Stderr, "store.driver is none; nothing was cached")
		}
		_, _ = fmt.Fprintf(os.Stdout, "%d features, %d zipcodes from %s\n", b.Len(), len(b.Zipcodes()), source)
		return nil
	},
}

func init() {
	boundariesRefreshCmd.Flags().String("source", "", "boundary source (default data.boundary_url)")
	boundariesCmd.AddCommand(boundariesRefreshCmd)
	rootCmd.AddCommand(boundariesCmd)
}
