package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/house-rocket/internal/pipeline"
	"github.com/sells-group/house-rocket/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		metrics := server.NewMetrics()
		env, err := initEnv(ctx, "serve", pipeline.WithObserver(metrics))
		if err != nil {
			return err
		}
		defer env.Close()

		// Both sources must load before the server accepts requests.
		src, err := env.Loader.LoadAll(ctx, cfg.Data.ListingsPath, cfg.Data.BoundaryURL)
		if err != nil {
			return err
		}
		zap.L().Info("sources ready",
			zap.Int("listings", len(src.Listings)),
			zap.Int("boundaries", src.Boundaries.Len()),
		)

		opts := []server.Option{server.WithMetrics(metrics)}
		if env.Store != nil {
			opts = append(opts, server.WithRunHistory(env.Store))
		}
		srv := server.New(env.Pipeline, env.Loader, server.Config{
			BoundarySource: cfg.Data.BoundaryURL,
			CORSOrigins:    cfg.Server.CORSOrigins,
			RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		}, opts...)

		return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
