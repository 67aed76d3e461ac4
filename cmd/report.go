package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/house-rocket/internal/insight"
	"github.com/sells-group/house-rocket/internal/pipeline"
)

// reportView is the structured form of the report command output.
type reportView struct {
	Summary insight.Summary     `json:"summary" yaml:"summary"`
	Options pipeline.Options    `json:"options" yaml:"options"`
	Buy     []insight.BuyRow    `json:"buy" yaml:"buy"`
	Profit  []insight.ProfitRow `json:"profit" yaml:"profit"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the buy and resale recommendation tables",
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

		view := reportView{
			Summary: insight.Summarize(res),
			Options: res.Options,
			Buy:     insight.BuyRows(res.Buy),
			Profit:  insight.ProfitRows(res.Profit),
		}
		format, _ := cmd.Flags().GetString("format")
		if done, err := writeStructured(os.Stdout, format, view); done {
			return err
		}
		formatReport(os.Stdout, view)
		return nil
	},
}

func init() {
	addFilterFlags(reportCmd)
	addFormatFlag(reportCmd)
	reportCmd.Flags().Bool("record", false, "save the run to the run history")
	rootCmd.AddCommand(reportCmd)
}

// formatReport writes the summary and both tables to out.
func formatReport(out io.Writer, v reportView) {
	_, _ = fmt.Fprintln(out, v.Summary.Text)
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "BUY")
	w := newTable(out)
	tableRow(w, "ID", "ZIPCODE", "PRICE", "PRICE_MEDIAN", "CONDITION")
	for _, r := range v.Buy {
		tableRow(w, r.ID, r.Zipcode, insight.Currency(r.Price), insight.Currency(r.PriceMedian), r.Condition)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "PROFIT")
	w = newTable(out)
	tableRow(w, "ID", "ZIPCODE", "PRICE", "SEASON", "SEASON_MEDIAN", "CONDITION", "SALE_PRICE", "GAIN")
	for _, r := range v.Profit {
		tableRow(w, r.ID, r.Zipcode, insight.Currency(r.Price), r.Season,
			insight.Currency(r.PriceMedianSeason), r.Condition,
			insight.Currency(r.SalePrice), insight.Currency(r.Gain))
	}
	_ = w.Flush()
}
