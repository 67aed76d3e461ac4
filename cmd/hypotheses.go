package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/house-rocket/internal/insight"
	"github.com/sells-group/house-rocket/internal/pipeline"
)

var hypothesesCmd = &cobra.Command{
	Use:   "hypotheses",
	Short: "Check the five business hypotheses against the listings",
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

		hs := insight.Hypotheses(res.Listings)
		format, _ := cmd.Flags().GetString("format")
		if done, err := writeStructured(os.Stdout, format, hs); done {
			return err
		}
		formatHypotheses(os.Stdout, hs)
		return nil
	},
}

func init() {
	addFormatFlag(hypothesesCmd)
	rootCmd.AddCommand(hypothesesCmd)
}

func formatHypotheses(out io.Writer, hs []insight.Hypothesis) {
	for _, h := range hs {
		_, _ = fmt.Fprintf(out, "%s  %s\n", h.ID, h.Claim)
		w := newTable(out)
		for _, b := range h.Bars {
			tableRow(w, "   "+b.Label, insight.Number(b.Value, 2))
		}
		_ = w.Flush()
		_, _ = fmt.Fprintf(out, "    %s\n\n", h.Verdict)
	}
}
