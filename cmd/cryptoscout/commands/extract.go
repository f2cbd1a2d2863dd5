package commands

import (
	"log/slog"

	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts a record from every page of the detail corpus.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		p, r := mustPipeline(ctx)
		defer r.Close()

		records, err := p.Extract(ctx)
		if err != nil {
			serviceutil.Fatal("failed to extract records", err)
		}
		slog.Info("records saved", "path", p.Config().RecordsPath(), "count", len(records))
	},
}
