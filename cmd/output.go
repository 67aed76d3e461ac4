package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/house-rocket/internal/pipeline"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var filterValidator = validator.New()

// addFilterFlags registers --condition and --zipcode on cmd.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("condition", nil, "condition labels to keep (too bad, bad, median, good, excellent)")
	cmd.Flags().StringSlice("zipcode", nil, "zipcodes to keep")
}

// filterFromFlags reads and validates the filter flags.
func filterFromFlags(cmd *cobra.Command) (pipeline.Filter, error) {
	conds, _ := cmd.Flags().GetStringSlice("condition")
	zips, _ := cmd.Flags().GetStringSlice("zipcode")

	f := pipeline.Filter{Conditions: trimAll(conds), Zipcodes: trimAll(zips)}
	if err := filterValidator.Struct(f); err != nil {
		return f, eris.Wrap(err, "invalid filter")
	}
	return f, nil
}

func trimAll(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", formatTable, "output format: table, json or yaml")
}

// writeStructured writes v as JSON or YAML. It reports false for the table
// format so the caller renders its own table.
func writeStructured(out io.Writer, format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, eris.Wrap(err, "encode yaml")
		}
		return true, enc.Close()
	case formatTable, "":
		return false, nil
	default:
		return true, eris.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func tableRow(w io.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	_, _ = fmt.Fprintln(w, strings.Join(parts, "\t"))
}
