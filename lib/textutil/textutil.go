package textutil

import (
	"regexp"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

type Match struct {
	Index      int
	Similarity float64
}

// RankBySimilarity scores every candidate against query with Jaro-Winkler over
// normalized names and returns the matches above minSimilarity, best first.
// Ties keep candidate order.
func RankBySimilarity(query string, candidates []string, minSimilarity float64) []Match {
	query = NormalizeName(query)

	var matches []Match
	for i, c := range candidates {
		c = NormalizeName(c)
		if c == "" {
			continue
		}
		similarity := matchr.JaroWinkler(query, c, false)
		if similarity < minSimilarity {
			continue
		}
		matches = append(matches, Match{Index: i, Similarity: similarity})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})
	return matches
}
