package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vest-cli/internal/scan"
	"github.com/sells-group/vest-cli/internal/scorer"
	"github.com/sells-group/vest-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage scan history",
	Long:  "Commands for listing, viewing, rescoring, exporting and importing saved scans.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scans, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := historyFilter(cmd)
		if err != nil {
			return err
		}

		recs, err := st.ListScans(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No scans found.")
			return nil
		}

		formatHistoryList(cmd.OutOrStdout(), recs)
		return nil
	},
}

// -- history show --

var historyShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show a saved scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := loadResult(cmd, st, args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		formatScan(cmd.OutOrStdout(), res)
		return nil
	},
}

// -- history rescore --

var historyRescoreCmd = &cobra.Command{
	Use:   "rescore <scan-id>",
	Short: "Rescore a saved scan at a new buy price without searching again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		prev, err := loadResult(cmd, st, args[0])
		if err != nil {
			return err
		}

		buy := prev.BuyPrice
		if cmd.Flags().Changed("buy") {
			buy, _ = cmd.Flags().GetFloat64("buy")
		}
		if buy < 0 {
			return eris.New("history rescore: --buy must be >= 0")
		}
		exclude, _ := cmd.Flags().GetStringSlice("exclude")

		engine, err := initEngine()
		if err != nil {
			return err
		}
		// Rescoring never searches, so the session needs no marketplace.
		session := scan.NewSession(nil, engine, sessionConfig(), scan.WithHistory(st))

		res, err := session.Rescore(ctx, prev, buy, exclude)
		if err != nil {
			return eris.Wrap(err, "history rescore")
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		formatScan(cmd.OutOrStdout(), res)
		return nil
	},
}

// -- history delete --

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <scan-id>",
	Short: "Delete a saved scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteScan(ctx, args[0]); err != nil {
			return eris.Wrap(err, "history delete")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Deleted scan %s.\n", args[0])
		return nil
	},
}

// -- history export --

var historyExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export scans to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := historyFilter(cmd)
		if err != nil {
			return err
		}
		recs, err := st.ListScans(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history export")
		}

		f, err := os.Create(args[0])
		if err != nil {
			return eris.Wrapf(err, "history export: create %s", args[0])
		}
		if err := store.ExportXLSX(f, recs); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "history export: close")
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d scans to %s.\n", len(recs), args[0])
		return nil
	},
}

// -- history import --

var historyImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import scan summaries from a spreadsheet",
	Long: `Import rows written by "history export". Imported scans carry only the
summary columns; they can be listed but not rescored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		recs, err := store.ImportXLSX(args[0])
		if err != nil {
			return err
		}

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, rec := range recs {
			if err := st.SaveScan(ctx, rec); err != nil {
				return eris.Wrapf(err, "history import: scan %s", rec.ID)
			}
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d scans from %s.\n", len(recs), args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		f := c.Flags()
		f.String("grade", "", "only scans with this grade")
		f.Float64("min-score", 0, "only scans scoring at least this")
		f.String("query", "", "only scans whose item or query contains this text")
		f.Int("limit", store.DefaultListLimit, "maximum number of scans")
		f.Int("offset", 0, "scans to skip")
	}

	historyShowCmd.Flags().String("format", "table", "output format: table or json")

	historyRescoreCmd.Flags().Float64("buy", 0, "new buy price (default: the saved buy price)")
	historyRescoreCmd.Flags().StringSlice("exclude", nil, "listing IDs to drop from the comparables")
	historyRescoreCmd.Flags().String("format", "table", "output format: table or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRescoreCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyFilter(cmd *cobra.Command) (store.ScanFilter, error) {
	f := cmd.Flags()
	grade, _ := f.GetString("grade")
	minScore, _ := f.GetFloat64("min-score")
	q, _ := f.GetString("query")
	limit, _ := f.GetInt("limit")
	offset, _ := f.GetInt("offset")

	filter := store.ScanFilter{MinScore: minScore, Query: q, Limit: limit, Offset: offset}
	if grade != "" {
		g, ok := scorer.ParseGrade(grade)
		if !ok {
			return store.ScanFilter{}, eris.Errorf("unknown grade %q", grade)
		}
		filter.Grade = g
	}
	return filter, nil
}

func loadResult(cmd *cobra.Command, st store.Store, id string) (*scan.Result, error) {
	rec, err := st.GetScan(cmd.Context(), id)
	if err != nil {
		return nil, eris.Wrapf(err, "load scan %s", id)
	}
	return scan.FromRecord(rec)
}

// formatHistoryList writes a tabular list of scans to w.
func formatHistoryList(out io.Writer, recs []store.ScanRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tITEM\tGRADE\tSCORE\tBUY\tPROFIT\tROI\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t---\t------\t---\t-------")

	for _, r := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t$%.2f\t$%.2f\t%.1f%%\t%s\n",
			truncateID(r.ID),
			truncate(r.ItemName, 30),
			r.Grade,
			r.Score,
			r.BuyPrice,
			r.NetProfit,
			r.ROI.Percent(),
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return string(r)
}
