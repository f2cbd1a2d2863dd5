package asset

import (
	"cryptoscout/lib/money"
)

// Stats holds the secondary figures of an asset's detail page.
type Stats struct {
	FDV    *string  `json:"fdv"`
	Volume *string  `json:"volume"`
	Ratio  *float64 `json:"ratio"`
	// Changes holds the percent change shown beside each stat, keyed by
	// "market_cap", "fdv" and "volume".
	Changes map[string]string `json:"changes,omitempty"`
}

// Record is the normalized result of extracting one detail page. Money
// values are kept as display text ("$1.2T"), only the ratio is numeric.
type Record struct {
	Name      *string `json:"name"`
	Symbol    *string `json:"symbol"`
	Price     *string `json:"price"`
	MarketCap *string `json:"market_cap"`
	Stats     Stats   `json:"stats"`
}

// Fields are the raw extracted values of a record, an empty string means
// the field could not be located.
type Fields struct {
	Name      string
	Symbol    string
	Price     string
	MarketCap string
	FDV       string
	Volume    string
	Changes   map[string]string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ComputeRatio returns marketCap / fdv when both parse to non-zero numbers.
func ComputeRatio(marketCap, fdv string) (float64, bool) {
	mcap, ok := money.Parse(marketCap)
	if !ok || mcap == 0 {
		return 0, false
	}
	fdvValue, ok := money.Parse(fdv)
	if !ok || fdvValue == 0 {
		return 0, false
	}
	return mcap / fdvValue, true
}

func NewRecord(f Fields) Record {
	r := Record{
		Name:      optional(f.Name),
		Symbol:    optional(f.Symbol),
		Price:     optional(f.Price),
		MarketCap: optional(f.MarketCap),
		Stats: Stats{
			FDV:    optional(f.FDV),
			Volume: optional(f.Volume),
		},
	}
	if ratio, ok := ComputeRatio(f.MarketCap, f.FDV); ok {
		r.Stats.Ratio = &ratio
	}
	if len(f.Changes) > 0 {
		r.Stats.Changes = make(map[string]string, len(f.Changes))
		for k, v := range f.Changes {
			if v != "" {
				r.Stats.Changes[k] = v
			}
		}
		if len(r.Stats.Changes) == 0 {
			r.Stats.Changes = nil
		}
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r Record) NameOr(fallback string) string {
	if r.Name == nil {
		return fallback
	}
	return *r.Name
}

// Fields is the inverse of NewRecord.
func (r Record) Fields() Fields {
	var changes map[string]string
	if len(r.Stats.Changes) > 0 {
		changes = make(map[string]string, len(r.Stats.Changes))
		for k, v := range r.Stats.Changes {
			changes[k] = v
		}
	}
	return Fields{
		Name:      deref(r.Name),
		Symbol:    deref(r.Symbol),
		Price:     deref(r.Price),
		MarketCap: deref(r.MarketCap),
		FDV:       deref(r.Stats.FDV),
		Volume:    deref(r.Stats.Volume),
		Changes:   changes,
	}
}
