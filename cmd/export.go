package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/house-rocket/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the recommendation tables, statistics and hypotheses to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		record, _ := cmd.Flags().GetBool("record")
		res, err := runPipeline(ctx, env, f, record)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if err := export.WriteFile(out, res); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stderr, "wrote %s (%d buy, %d profit rows)\n", out, len(res.Buy), len(res.Profit))
		return nil
	},
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().String("out", "house-rocket.xlsx", "workbook path")
	exportCmd.Flags().Bool("record", false, "save the run to the run history")
	rootCmd.AddCommand(exportCmd)
}
