package globals

import (
	"time"

	"cryptoscout/internal/browser"
	"cryptoscout/internal/fetch"
	"cryptoscout/internal/notify"
	"cryptoscout/internal/pagination"
	"cryptoscout/internal/pipeline"
	"cryptoscout/lib/configutil"
	configlibsql "cryptoscout/lib/configutil/libsql"
)

const DefaultConfigPath = "cryptoscout.json5"

type PipelineConfig struct {
	URL         string `json:"url"`
	OutDir      string `json:"out_dir"`
	ListingFile string `json:"listing_file"`
	DetailFile  string `json:"detail_file"`
	RecordsFile string `json:"records_file"`

	TargetRows int `json:"target_rows"`
	MaxAssets  int `json:"max_assets"`
	// Threshold is a pointer so an explicit 0 is told apart from a missing
	// key.
	Threshold *float64 `json:"threshold"`

	FetchIntervalSeconds float64 `json:"fetch_interval_seconds"`
	RenderTimeoutSeconds float64 `json:"render_timeout_seconds"`
	ScrollPauseSeconds   float64 `json:"scroll_pause_seconds"`
	ScrollBudgetSeconds  float64 `json:"scroll_budget_seconds"`
}

type FetchConfig struct {
	UserAgent         string  `json:"user_agent"`
	TimeoutSeconds    float64 `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	BrowserTransport  bool    `json:"browser_transport"`
}

type CacheConfig struct {
	// Dir holds the detail page cache, it may start with <dev_state>. An
	// empty dir disables caching.
	Dir      string  `json:"dir"`
	TTLHours float64 `json:"ttl_hours"`
}

type WatchConfig struct {
	Cron string `json:"cron"`
}

type Config struct {
	Pipeline PipelineConfig      `json:"pipeline"`
	Browser  browser.Config      `json:"browser"`
	Fetch    FetchConfig         `json:"fetch"`
	Cache    CacheConfig         `json:"cache"`
	Database configlibsql.Struct `json:"database"`
	Notify   notify.SmtpConfig   `json:"notify"`
	Watch    WatchConfig         `json:"watch"`
}

func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{TTLHours: 12},
		Watch: WatchConfig{Cron: "@every 6h"},
	}
}

// ReadConfig reads the config at path (and its .local override) over the
// defaults, a missing file leaves the defaults untouched.
func ReadConfig(path string) (Config, error) {
	return configutil.ReadConfigWithDefaults(path, DefaultConfig())
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c PipelineConfig) Build() pipeline.Config {
	return pipeline.Config{
		URL:           c.URL,
		OutDir:        c.OutDir,
		ListingFile:   c.ListingFile,
		DetailFile:    c.DetailFile,
		RecordsFile:   c.RecordsFile,
		TargetRows:    c.TargetRows,
		MaxAssets:     c.MaxAssets,
		Threshold:     c.Threshold,
		FetchInterval: seconds(c.FetchIntervalSeconds),
		Pagination: pagination.Config{
			RenderTimeout: seconds(c.RenderTimeoutSeconds),
			ScrollPause:   seconds(c.ScrollPauseSeconds),
			ScrollBudget:  seconds(c.ScrollBudgetSeconds),
		},
	}.WithDefaults()
}

func (c FetchConfig) Build() fetch.Config {
	return fetch.Config{
		UserAgent:         c.UserAgent,
		Timeout:           seconds(c.TimeoutSeconds),
		RequestsPerSecond: c.RequestsPerSecond,
		BrowserTransport:  c.BrowserTransport,
	}
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours * float64(time.Hour))
}
