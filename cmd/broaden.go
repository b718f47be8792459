package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/vest-cli/internal/query"
)

var broadenCmd = &cobra.Command{
	Use:   "broaden <query>",
	Short: "Show the search relaxation ladder for a query",
	Long: `Print the progressively broader search phrases a scan falls back to
when a query returns too few listings.

Example:
  vest broaden "Vintage Red Nike Air Jordan 1 Size 10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		variants := query.Broaden(strings.Join(args, " "))

		out := cmd.OutOrStdout()
		if format == "json" {
			return writeJSON(out, map[string]any{"variants": variants})
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TIER\tCONFIDENCE\tQUERY\tSTRIPPED")
		_, _ = fmt.Fprintln(w, "----\t----------\t-----\t--------")
		for _, v := range variants {
			_, _ = fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\n",
				v.Tier, v.Confidence, v.Query, strings.Join(v.StrippedTerms, ", "))
		}
		return w.Flush()
	},
}

func init() {
	broadenCmd.Flags().String("format", "table", "output format: table or json")
	rootCmd.AddCommand(broadenCmd)
}
