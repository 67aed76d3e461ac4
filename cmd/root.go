package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/house-rocket/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "house-rocket",
	Short: "Buy and resale recommendations for King County house sales",
	Long:  "Loads the King County sales file and zipcode boundaries, recommends under-priced houses to buy, prices their resale by season and serves the results as a JSON API or CLI reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
