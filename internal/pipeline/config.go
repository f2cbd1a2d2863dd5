package pipeline

import (
	"path/filepath"
	"time"

	"cryptoscout/internal/asset"
	"cryptoscout/internal/pagination"
)

const (
	DefaultURL         = "https://coinmarketcap.com/"
	DefaultOutDir      = "out"
	DefaultListingFile = "coinmarketcap_combined.html"
	DefaultDetailFile  = "coinmarketcap_detail.html"
	DefaultRecordsFile = "cryptos_detail.json"

	DefaultTargetRows    = 300
	DefaultMaxAssets     = 300
	DefaultThreshold     = 0.3
	DefaultFetchInterval = 1500 * time.Millisecond
)

type Config struct {
	// URL is the first listing page, detail links are resolved against it.
	URL    string
	OutDir string

	ListingFile string
	DetailFile  string
	RecordsFile string

	TargetRows int
	MaxAssets  int
	// Threshold is the market cap / FDV ratio records are filtered below,
	// nil uses DefaultThreshold. Zero is a valid threshold that keeps nothing.
	Threshold *float64
	// FetchInterval is the pause after every detail page fetched over the
	// network.
	FetchInterval time.Duration

	Pagination pagination.Config
}

// RatioThreshold is the configured threshold, DefaultThreshold when unset.
func (c Config) RatioThreshold() float64 {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

// WithDefaults fills every zero field with its default.
func (c Config) WithDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.OutDir == "" {
		c.OutDir = DefaultOutDir
	}
	if c.ListingFile == "" {
		c.ListingFile = DefaultListingFile
	}
	if c.DetailFile == "" {
		c.DetailFile = DefaultDetailFile
	}
	if c.RecordsFile == "" {
		c.RecordsFile = DefaultRecordsFile
	}
	if c.TargetRows == 0 {
		c.TargetRows = DefaultTargetRows
	}
	if c.MaxAssets == 0 {
		c.MaxAssets = DefaultMaxAssets
	}
	if c.Threshold == nil {
		threshold := DefaultThreshold
		c.Threshold = &threshold
	}
	if c.FetchInterval == 0 {
		c.FetchInterval = DefaultFetchInterval
	}
	c.Pagination = c.Pagination.WithDefaults()
	return c
}

func (c Config) ListingPath() string {
	return filepath.Join(c.OutDir, c.ListingFile)
}

func (c Config) DetailPath() string {
	return filepath.Join(c.OutDir, c.DetailFile)
}

func (c Config) RecordsPath() string {
	return filepath.Join(c.OutDir, c.RecordsFile)
}

func (c Config) FilteredPath(threshold float64) string {
	return asset.FilteredPath(c.RecordsPath(), threshold)
}
