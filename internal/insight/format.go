package insight

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/house-rocket/internal/pipeline"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats v as US$ with thousands separators and two decimals.
func Currency(v float64) string {
	return printer.Sprintf("US$ %.2f", v)
}

// Number formats v with thousands separators and the given decimals.
func Number(v float64, decimals int) string {
	return printer.Sprintf("%.*f", decimals, v)
}

// Summary is the sidebar headline for a run.
type Summary struct {
	Selected  int     `json:"selected" yaml:"selected"`
	TotalGain float64 `json:"total_gain" yaml:"total_gain"`
	Text      string  `json:"text" yaml:"text"`
}

// Summarize builds the sidebar headline from a pipeline result.
func Summarize(res *pipeline.Result) Summary {
	s := Summary{Selected: res.Selected, TotalGain: res.TotalGain}
	s.Text = printer.Sprintf("%d houses selected, total estimated gain %s", s.Selected, Currency(s.TotalGain))
	return s
}
