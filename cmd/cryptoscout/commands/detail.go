package commands

import (
	"log/slog"

	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var detailMax int

func init() {
	detailCmd.Flags().IntVar(&detailMax, "max", 0, "Fetch the detail page of at most this many assets.")
	rootCmd.AddCommand(detailCmd)
}

var detailCmd = &cobra.Command{
	Use:   "detail [--max <assets>]",
	Short: "Fetches the detail page of every listed asset and writes the detail corpus.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		p, r := mustPipeline(ctx)
		defer r.Close()

		details, err := p.Detail(ctx, detailMax)
		if err != nil {
			serviceutil.Fatal("failed to fetch details", err)
		}
		slog.Info("detail corpus saved", "path", p.Config().DetailPath(), "sections", len(details))
	},
}
