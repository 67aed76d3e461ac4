// Package export writes a run's tables, statistics and hypotheses to an
// XLSX workbook.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/house-rocket/internal/insight"
	"github.com/sells-group/house-rocket/internal/pipeline"
)

// Sheet names in workbook order.
const (
	SheetBuy        = "buy"
	SheetProfit     = "profit"
	SheetStats      = "stats"
	SheetHypotheses = "hypotheses"
)

const (
	currencyFormat = `"US$ "#,##0.00`
	decimalFormat  = "#,##0.00"
	percentFormat  = "0.00%"
)

var (
	buyHeader    = []string{"id", "zipcode", "price", "price_median", "condition"}
	profitHeader = []string{"id", "zipcode", "price", "season", "price_median_season", "condition", "sale_price", "gain"}
	statsHeader  = []string{"attribute", "max", "min", "mean", "median", "std", "count"}
	hypoHeader   = []string{"id", "claim", "metric", "holds", "verdict"}
)

// Workbook builds the four-sheet workbook for res.
func Workbook(res *pipeline.Result) (*xlsx.File, error) {
	f := xlsx.NewFile()

	buy, err := addSheet(f, SheetBuy, buyHeader)
	if err != nil {
		return nil, err
	}
	for _, r := range insight.BuyRows(res.Buy) {
		row := buy.AddRow()
		row.AddCell().SetInt64(r.ID)
		row.AddCell().SetString(r.Zipcode)
		row.AddCell().SetFloatWithFormat(r.Price, currencyFormat)
		row.AddCell().SetFloatWithFormat(r.PriceMedian, currencyFormat)
		row.AddCell().SetString(r.Condition)
	}

	profit, err := addSheet(f, SheetProfit, profitHeader)
	if err != nil {
		return nil, err
	}
	for _, r := range insight.ProfitRows(res.Profit) {
		row := profit.AddRow()
		row.AddCell().SetInt64(r.ID)
		row.AddCell().SetString(r.Zipcode)
		row.AddCell().SetFloatWithFormat(r.Price, currencyFormat)
		row.AddCell().SetString(r.Season)
		row.AddCell().SetFloatWithFormat(r.PriceMedianSeason, currencyFormat)
		row.AddCell().SetString(r.Condition)
		row.AddCell().SetFloatWithFormat(r.SalePrice, currencyFormat)
		row.AddCell().SetFloatWithFormat(r.Gain, currencyFormat)
	}
	total := profit.AddRow()
	total.AddCell().SetString("total")
	for range len(profitHeader) - 2 {
		total.AddCell()
	}
	total.AddCell().SetFloatWithFormat(res.TotalGain, currencyFormat)

	stats, err := addSheet(f, SheetStats, statsHeader)
	if err != nil {
		return nil, err
	}
	for _, s := range insight.Describe(res.Listings) {
		row := stats.AddRow()
		row.AddCell().SetString(s.Attribute)
		for _, v := range []float64{s.Max, s.Min, s.Mean, s.Median, s.Std} {
			row.AddCell().SetFloatWithFormat(v, decimalFormat)
		}
		row.AddCell().SetInt(s.Count)
	}

	hypo, err := addSheet(f, SheetHypotheses, hypoHeader)
	if err != nil {
		return nil, err
	}
	for _, h := range insight.Hypotheses(res.Listings) {
		row := hypo.AddRow()
		row.AddCell().SetString(h.ID)
		row.AddCell().SetString(h.Claim)
		row.AddCell().SetFloatWithFormat(h.Metric, percentFormat)
		row.AddCell().SetBool(h.Holds)
		row.AddCell().SetString(h.Verdict)
	}

	return f, nil
}

// Write streams the workbook for res to w.
func Write(w io.Writer, res *pipeline.Result) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write workbook")
}

// WriteFile saves the workbook for res at path.
func WriteFile(path string, res *pipeline.Result) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("export: workbook written",
		zap.String("path", path),
		zap.Int("buy", len(res.Buy)),
		zap.Int("profit", len(res.Profit)),
	)
	return nil
}

func addSheet(f *xlsx.File, name string, header []string) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "export: add sheet %s", name)
	}
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true

	row := sheet.AddRow()
	for _, h := range header {
		c := row.AddCell()
		c.SetString(h)
		c.SetStyle(style)
	}
	return sheet, nil
}
