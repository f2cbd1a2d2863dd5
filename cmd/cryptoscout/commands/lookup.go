package commands

import (
	"fmt"

	"cryptoscout/cmd/cryptoscout/globals"
	"cryptoscout/internal/asset"
	"cryptoscout/internal/report"
	"cryptoscout/lib/serviceutil"
	"cryptoscout/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	lookupMinSimilarity float64
	lookupLimit         int
)

func init() {
	lookupCmd.Flags().Float64Var(&lookupMinSimilarity, "min", 0.8, "The minimum Jaro-Winkler similarity of a match.")
	lookupCmd.Flags().IntVar(&lookupLimit, "limit", 5, "The number of matches to print.")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Finds the extracted records whose name is closest to the given name.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v := globals.Get(cmd.Context())

		records, err := asset.ReadRecords(v.Config.Pipeline.Build().RecordsPath())
		if err != nil {
			serviceutil.Fatal("failed to read records", err)
		}

		candidates := make([]string, len(records))
		for i, r := range records {
			candidates[i] = r.NameOr("")
		}
		matches := textutil.RankBySimilarity(args[0], candidates, lookupMinSimilarity)
		if len(matches) > lookupLimit {
			matches = matches[:lookupLimit]
		}

		t := report.NewTable()
		t.AppendHeader(table.Row{"Similarity", "Name", "Symbol", "Market cap", "FDV", "Ratio"})
		for _, m := range matches {
			r := records[m.Index]
			fields := r.Fields()
			t.AppendRow(table.Row{
				fmt.Sprintf("%.3f", m.Similarity),
				fields.Name,
				fields.Symbol,
				fields.MarketCap,
				fields.FDV,
				report.FormatRatio(r.Stats.Ratio),
			})
		}
		fmt.Println(t.Render())
	},
}
