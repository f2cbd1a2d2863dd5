package globals

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryptoscout/internal/pipeline"
	"cryptoscout/lib/configutil"

	"github.com/stretchr/testify/require"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig(filepath.Join(t.TempDir(), DefaultConfigPath))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	built := cfg.Pipeline.Build()
	require.Equal(t, pipeline.DefaultURL, built.URL)
	require.Equal(t, pipeline.DefaultFetchInterval, built.FetchInterval)
	require.Equal(t, 12*time.Hour, cfg.Cache.TTL())
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigPath)
	err := os.WriteFile(path, []byte(`{
		pipeline: {
			out_dir: "results",
			target_rows: 100,
			threshold: 0.5,
			fetch_interval_seconds: 0.25,
			scroll_budget_seconds: 30,
		},
		browser: {remote_url: "ws://127.0.0.1:9222"},
		fetch: {requests_per_second: 2, timeout_seconds: 5},
		database: {file: ":memory:"},
		notify: {server: "smtp.email.com", port: 587, to: ["alice@email.com"]},
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "@every 6h", cfg.Watch.Cron, "defaults survive")
	require.Equal(t, "ws://127.0.0.1:9222", cfg.Browser.RemoteURL)
	require.Equal(t, ":memory:", cfg.Database.File)
	require.Equal(t, []string{"alice@email.com"}, cfg.Notify.To)

	built := cfg.Pipeline.Build()
	require.Equal(t, "results", built.OutDir)
	require.Equal(t, 100, built.TargetRows)
	require.Equal(t, pipeline.DefaultMaxAssets, built.MaxAssets)
	require.Equal(t, 0.5, built.RatioThreshold())
	require.Equal(t, 250*time.Millisecond, built.FetchInterval)
	require.Equal(t, 30*time.Second, built.Pagination.ScrollBudget)

	fetchCfg := cfg.Fetch.Build()
	require.Equal(t, 5*time.Second, fetchCfg.Timeout)
	require.Equal(t, 2.0, fetchCfg.RequestsPerSecond)
}

func TestReadConfigZeroThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigPath)
	err := os.WriteFile(path, []byte(`{pipeline: {threshold: 0.5}}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(configutil.LocalPath(path), []byte(`{pipeline: {threshold: 0}}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Pipeline.Threshold)
	require.Equal(t, 0.0, cfg.Pipeline.Build().RatioThreshold(), "an explicit 0 is kept")

	cfg, err = ReadConfig(filepath.Join(t.TempDir(), DefaultConfigPath))
	require.NoError(t, err)
	require.Nil(t, cfg.Pipeline.Threshold)
	require.Equal(t, pipeline.DefaultThreshold, cfg.Pipeline.Build().RatioThreshold())
}
