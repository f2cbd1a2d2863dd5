package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cryptoscout/cmd/cryptoscout/globals"
	"cryptoscout/lib/htmlutil"
	"cryptoscout/lib/serviceutil"

	"github.com/spf13/cobra"
)

const (
	snapshotWithHeaders    = "coinmarketcap_avec_headers.html"
	snapshotWithoutHeaders = "coinmarketcap_sans_headers.html"
)

var (
	snapshotHeaders  bool
	snapshotOut      string
	snapshotMarkdown bool
)

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotHeaders, "headers", false, "Send the configured User-Agent.")
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "", "The file to write, defaults to a file in the output directory.")
	snapshotCmd.Flags().BoolVar(&snapshotMarkdown, "markdown", false, "Also write a markdown rendering of the page next to the snapshot.")
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [url] [--headers] [--out <file>] [--markdown]",
	Short: "Fetches a single page without rendering it and saves the raw response.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		v := globals.Get(ctx)
		cfg := v.Config.Pipeline.Build()

		url := cfg.URL
		if len(args) > 0 {
			url = args[0]
		}
		out := snapshotOut
		if out == "" {
			name := snapshotWithoutHeaders
			if snapshotHeaders {
				name = snapshotWithHeaders
			}
			out = filepath.Join(cfg.OutDir, name)
		}

		client, err := openFetcher(v, &resources{})
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		res, err := client.Snapshot(ctx, url, snapshotHeaders)
		if err != nil {
			serviceutil.Fatal(fmt.Sprintf("failed to fetch %s", url), err)
		}

		err = os.MkdirAll(filepath.Dir(out), 0777)
		if err != nil {
			serviceutil.Fatal("failed to create output dir", err)
		}
		err = os.WriteFile(out, res.Body, 0644)
		if err != nil {
			serviceutil.Fatal("failed to write snapshot", err)
		}
		slog.Info("response saved", "status", res.Status, "path", out, "bytes", len(res.Body))

		if !snapshotMarkdown {
			return
		}
		rendered, err := htmlutil.ToMarkdown(url, res.Body)
		if err != nil {
			serviceutil.Fatal("failed to render markdown", err)
		}
		mdOut := strings.TrimSuffix(out, filepath.Ext(out)) + ".md"
		err = os.WriteFile(mdOut, rendered, 0644)
		if err != nil {
			serviceutil.Fatal("failed to write markdown", err)
		}
		slog.Info("markdown saved", "path", mdOut)
	},
}
