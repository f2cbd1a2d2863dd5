package commands

import (
	"fmt"
	"log/slog"

	"cryptoscout/internal/report"
	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	runTarget    int
	runMax       int
	runThreshold float64
)

func init() {
	runCmd.Flags().IntVar(&runTarget, "target", 0, "Stop crawling once this many listing rows were captured.")
	runCmd.Flags().IntVar(&runMax, "max", 0, "Fetch the detail page of at most this many assets.")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0, "Keep the assets whose market cap / FDV ratio is below this (defaults to the configured threshold).")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--target <rows>] [--max <assets>] [--threshold <ratio>]",
	Short: "Crawls the listing, fetches details, extracts records and filters them.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		p, r := mustPipeline(ctx)
		defer r.Close()

		_, err := p.Crawl(ctx, runTarget)
		if err != nil {
			serviceutil.Fatal("failed to crawl listing", err)
		}
		details, err := p.Detail(ctx, runMax)
		if err != nil {
			serviceutil.Fatal("failed to fetch details", err)
		}
		records, err := p.Extract(ctx)
		if err != nil {
			serviceutil.Fatal("failed to extract records", err)
		}
		threshold := p.Config().RatioThreshold()
		if cmd.Flags().Changed("threshold") {
			threshold = runThreshold
		}
		filtered, err := p.Filter(ctx, threshold)
		if err != nil {
			serviceutil.Fatal("failed to filter records", err)
		}

		slog.Info(
			"run complete",
			"details", len(details),
			"records", len(records),
			"filtered", len(filtered),
		)
		fmt.Println(report.RecordsTable(filtered).Render())
	},
}
