package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/house-rocket/internal/insight"
	"github.com/sells-group/house-rocket/internal/pipeline"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print descriptive statistics of the cleaned listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := runPipeline(ctx, env, pipeline.Filter{}, false)
		if err != nil {
			return err
		}

		stats := insight.Describe(res.Listings)
		format, _ := cmd.Flags().GetString("format")
		if done, err := writeStructured(os.Stdout, format, stats); done {
			return err
		}
		formatStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	addFormatFlag(statsCmd)
	rootCmd.AddCommand(statsCmd)
}

func formatStats(out io.Writer, stats []insight.AttributeStats) {
	w := newTable(out)
	tableRow(w, "ATTRIBUTE", "MAX", "MIN", "MEAN", "MEDIAN", "STD", "COUNT")
	for _, s := range stats {
		tableRow(w, s.Attribute,
			insight.Number(s.Max, 2), insight.Number(s.Min, 2), insight.Number(s.Mean, 2),
			insight.Number(s.Median, 2), insight.Number(s.Std, 2), s.Count)
	}
	_ = w.Flush()
}
