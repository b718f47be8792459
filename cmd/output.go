package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/scorer"
)

// writeJSON pretty-prints v to out.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSONInput decodes a JSON document from path, or from stdin when path
// is "-".
func readJSONInput(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

// addOptionFlags registers the profit assumption flags shared by the
// scoring commands.
func addOptionFlags(f *pflag.FlagSet) {
	f.Float64("shipping", 0, "shipping cost override (default: category table)")
	f.String("category", "", "fee and shipping category (default from config)")
	f.Float64("promoted", 0, "promoted listing ad rate in [0,1] (default from config)")
}

// optionsFromFlags resolves the profit assumption flags against config.
func optionsFromFlags(cmd *cobra.Command) (scorer.Options, error) {
	f := cmd.Flags()

	var shipping *float64
	if f.Changed("shipping") {
		v, _ := f.GetFloat64("shipping")
		shipping = &v
	}

	category, _ := f.GetString("category")
	if category == "" {
		category = cfg.Fees.Category
	}

	promoted := cfg.Fees.PromotedRate
	if f.Changed("promoted") {
		promoted, _ = f.GetFloat64("promoted")
	}

	return scorer.ParseOptions(shipping, category, promoted)
}

// parseGrades parses a comma-separated grade list. Empty input yields the
// configured ladder.
func parseGrades(s string) ([]model.Grade, error) {
	if strings.TrimSpace(s) == "" {
		return cfg.Scoring.Grades(), nil
	}
	var out []model.Grade
	for _, part := range strings.Split(s, ",") {
		g, ok := scorer.ParseGrade(strings.TrimSpace(part))
		if !ok {
			return nil, eris.Errorf("unknown grade %q", part)
		}
		out = append(out, g)
	}
	return out, nil
}

// formatScore writes a score card to out.
func formatScore(out io.Writer, s model.VestScore) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Score:\t%.2f (%s)\n", s.Total, s.Grade)
	_, _ = fmt.Fprintf(w, "Recommendation:\t%s\n", s.Recommendation)
	_, _ = fmt.Fprintf(w, "Net profit:\t$%.2f\n", s.EstimatedProfit)
	_, _ = fmt.Fprintf(w, "ROI:\t%.2f%%\n", s.ROI.Percent())
	if ov := s.GradeOverride; ov != nil && ov.OverrideApplied {
		_, _ = fmt.Fprintf(w, "Override:\t%s -> %s (%s)\n", ov.OriginalGrade, ov.FinalGrade, ov.OverrideReason)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "AXIS\tRAW\tSCORE\tWEIGHTED\tDETAIL")
	_, _ = fmt.Fprintln(w, "----\t---\t-----\t--------\t------")
	for _, c := range []struct {
		name string
		c    model.ComponentScore
	}{
		{"velocity", s.Components.Velocity},
		{"equity", s.Components.Equity},
		{"stability", s.Components.Stability},
		{"trend", s.Components.Trend},
	} {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.0f\t%.2f\t%s\n",
			c.name, c.c.Raw, c.c.Normalized, c.c.Weighted, c.c.Description)
	}
	_ = w.Flush()
}

// formatSuggestions writes a buy-price ladder to out.
func formatSuggestions(out io.Writer, sugg []scorer.Suggestion) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GRADE\tMAX BUY")
	for _, s := range sugg {
		price := "-"
		if s.Reachable {
			price = fmt.Sprintf("$%.2f", s.BuyPrice)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", s.Grade, price)
	}
	_ = w.Flush()
}
