package commands

import (
	"fmt"
	"log/slog"

	"cryptoscout/internal/report"
	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var filterThreshold float64

func init() {
	filterCmd.Flags().Float64Var(&filterThreshold, "threshold", 0, "Keep the assets whose market cap / FDV ratio is below this (defaults to the configured threshold).")
	rootCmd.AddCommand(filterCmd)
}

var filterCmd = &cobra.Command{
	Use:   "filter [--threshold <ratio>]",
	Short: "Filters the extracted records by market cap / FDV ratio.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		p, r := mustPipeline(ctx)
		defer r.Close()

		threshold := p.Config().RatioThreshold()
		if cmd.Flags().Changed("threshold") {
			threshold = filterThreshold
		}
		filtered, err := p.Filter(ctx, threshold)
		if err != nil {
			serviceutil.Fatal("failed to filter records", err)
		}
		slog.Info("filtered records saved", "path", p.Config().FilteredPath(threshold), "count", len(filtered))
		fmt.Println(report.RecordsTable(filtered).Render())
	},
}
