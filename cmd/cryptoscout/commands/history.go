package commands

import (
	"fmt"
	"time"

	"cryptoscout/cmd/cryptoscout/globals"
	"cryptoscout/internal/report"
	"cryptoscout/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "The number of runs to list.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Lists the stored runs, most recent first.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		v := globals.Get(ctx)

		r := &resources{}
		defer r.Close()
		s, err := openStore(ctx, v, r)
		if err != nil {
			serviceutil.Fatal("failed to open store", err)
		}
		if s == nil {
			serviceutil.Fatal("cannot list runs", fmt.Errorf("no database is configured"))
		}

		runs, err := s.Runs(ctx, historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list runs", err)
		}

		t := report.NewTable()
		t.AppendHeader(table.Row{"Run", "Started", "Records", "Filtered at"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.ID,
				run.StartedAt.Local().Format(time.DateTime),
				run.Records,
				report.FormatRatio(run.Threshold),
			})
		}
		fmt.Println(t.Render())
	},
}
