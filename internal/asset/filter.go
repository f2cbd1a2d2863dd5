package asset

import (
	"path/filepath"
	"strconv"
	"strings"
)

// FilterByRatio returns a new slice holding the records whose ratio is
// strictly below threshold, records without a ratio never pass.
func FilterByRatio(records []Record, threshold float64) []Record {
	out := []Record{}
	for _, r := range records {
		if r.Stats.Ratio == nil {
			continue
		}
		if *r.Stats.Ratio < threshold {
			out = append(out, r)
		}
	}
	return out
}

// FormatThreshold renders a threshold the way it appears in file names,
// ex. 0.3 -> "0.3", 1 -> "1.0".
func FormatThreshold(threshold float64) string {
	s := strconv.FormatFloat(threshold, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// FilteredPath derives the output path of a filtered record set,
// ex. "out/cryptos_detail.json" -> "out/cryptos_detail_ratio_filter_0.3.json".
func FilteredPath(recordsPath string, threshold float64) string {
	ext := filepath.Ext(recordsPath)
	stem := strings.TrimSuffix(recordsPath, ext)
	return stem + "_ratio_filter_" + FormatThreshold(threshold) + ext
}
