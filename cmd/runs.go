package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/house-rocket/internal/insight"
	"github.com/sells-group/house-rocket/internal/model"
	"github.com/sells-group/house-rocket/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded recommendation runs",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		runs, err := st.ListRuns(ctx, store.RunFilter{Source: source, Limit: limit, Offset: offset})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		format, _ := cmd.Flags().GetString("format")
		if done, err := writeStructured(os.Stdout, format, runs); done {
			return err
		}
		if len(runs) == 0 {
			_, _ = fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run with its recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		if run == nil {
			return eris.Errorf("run %s not found", args[0])
		}

		format, _ := cmd.Flags().GetString("format")
		if done, err := writeStructured(os.Stdout, format, run); done {
			return err
		}
		formatRunDetail(os.Stdout, run)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("source", "", "filter by listings source")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "runs to skip")
	addFormatFlag(runsListCmd)
	addFormatFlag(runsShowCmd)

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func openRunStore(cmd *cobra.Command) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := store.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("run history needs a store; store.driver is none")
	}
	return st, nil
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []model.RunSummary) {
	w := newTable(out)
	tableRow(w, "ID", "SOURCE", "LISTINGS", "CANDIDATES", "SELECTED", "TOTAL_GAIN", "FILTER", "CREATED")
	for _, r := range runs {
		tableRow(w,
			truncateID(r.ID),
			r.Source,
			r.Listings,
			r.BuyCandidates,
			r.Selected,
			insight.Currency(r.TotalGain),
			describeSelection(r),
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func formatRunDetail(out io.Writer, run *model.RunDetail) {
	w := newTable(out)
	tableRow(w, "Run:", run.ID)
	tableRow(w, "Source:", run.Source)
	tableRow(w, "Created:", run.CreatedAt.Format("2006-01-02 15:04:05"))
	tableRow(w, "Filter:", describeSelection(run.RunSummary))
	tableRow(w, "Listings:", run.Listings)
	tableRow(w, "Candidates:", run.BuyCandidates)
	tableRow(w, "Selected:", run.Selected)
	tableRow(w, "Total gain:", insight.Currency(run.TotalGain))
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)

	w = newTable(out)
	tableRow(w, "ID", "ZIPCODE", "SEASON", "PRICE", "SALE_PRICE", "GAIN")
	for _, r := range run.Recommendations {
		tableRow(w, r.ListingID, r.Zipcode, r.Season,
			insight.Currency(r.Price), insight.Currency(r.SalePrice), insight.Currency(r.Gain))
	}
	_ = w.Flush()
}

func describeSelection(r model.RunSummary) string {
	var parts []string
	if len(r.Conditions) > 0 {
		parts = append(parts, "condition="+strings.Join(r.Conditions, ","))
	}
	if len(r.Zipcodes) > 0 {
		parts = append(parts, "zipcode="+strings.Join(r.Zipcodes, ","))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
