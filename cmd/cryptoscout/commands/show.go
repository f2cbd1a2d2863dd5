package commands

import (
	"fmt"

	"cryptoscout/cmd/cryptoscout/globals"
	"cryptoscout/internal/asset"
	"cryptoscout/internal/report"
	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	showFiltered float64
	showRun      string
)

func init() {
	showCmd.Flags().Float64Var(&showFiltered, "filtered", 0, "Show the record set filtered with this threshold.")
	showCmd.Flags().StringVar(&showRun, "run", "", "Show the records of a stored run instead of the record set.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [--filtered <threshold>] [--run <id>]",
	Short: "Prints a record set as a table.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		v := globals.Get(ctx)

		var records []asset.Record
		var err error
		if showRun != "" {
			r := &resources{}
			defer r.Close()
			s, err := openStore(ctx, v, r)
			if err != nil {
				serviceutil.Fatal("failed to open store", err)
			}
			if s == nil {
				serviceutil.Fatal("cannot show a run", fmt.Errorf("no database is configured"))
			}
			records, err = s.Records(ctx, showRun)
			if err != nil {
				serviceutil.Fatal("failed to read run", err)
			}
		} else {
			cfg := v.Config.Pipeline.Build()
			path := cfg.RecordsPath()
			if cmd.Flags().Changed("filtered") {
				path = cfg.FilteredPath(showFiltered)
			}
			records, err = asset.ReadRecords(path)
			if err != nil {
				serviceutil.Fatal("failed to read records", err)
			}
		}

		fmt.Println(report.RecordsTable(records).Render())
	},
}
