package commands

import (
	"log/slog"

	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var crawlTarget int

func init() {
	crawlCmd.Flags().IntVar(&crawlTarget, "target", 0, "Stop crawling once this many listing rows were captured.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--target <rows>]",
	Short: "Renders the listing page by page and writes the listing corpus.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		p, r := mustPipeline(ctx)
		defer r.Close()

		result, err := p.Crawl(ctx, crawlTarget)
		if err != nil {
			serviceutil.Fatal("failed to crawl listing", err)
		}
		slog.Info(
			"listing saved",
			"path", p.Config().ListingPath(),
			"pages", len(result.Batches),
			"rows", result.Total,
			"stop", result.Stop.String(),
		)
	},
}
