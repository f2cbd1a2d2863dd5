package commands

import (
	"log/slog"
	"time"

	"cryptoscout/cmd/cryptoscout/globals"
	"cryptoscout/lib/chrono"
	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var watchSpec string

func init() {
	watchCmd.Flags().StringVar(&watchSpec, "cron", "", "The schedule to run on, ex. '@every 6h' or '0 */4 * * *'.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--cron <spec>]",
	Short: "Runs every stage on a schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		v := globals.Get(ctx)

		spec := watchSpec
		if spec == "" {
			spec = v.Config.Watch.Cron
		}

		p, r := mustPipeline(ctx)
		defer r.Close()

		schedule := chrono.NewSchedule(v.Telemetry)
		err := schedule.Add("run", spec, func() {
			summary, err := p.Run(ctx)
			if err != nil {
				v.Telemetry.ReportBroken("watch.run", err)
				return
			}
			next, _ := schedule.Next("run")
			slog.Info(
				"scheduled run complete",
				"rows", summary.Crawl.Total,
				"records", summary.Records,
				"filtered", len(summary.Filtered),
				"next", next.Format(time.DateTime),
			)
		})
		if err != nil {
			serviceutil.Fatal("invalid cron spec", err)
		}
		slog.Info("watching", "cron", spec)
		schedule.Run(ctx)
	},
}
