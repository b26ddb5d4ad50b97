package acronym

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is an acronym whose key fuzzily matches a search pattern.
type Match struct {
	Acronym string `json:"acronym"`
	Score   int    `json:"score"`
	Entries int    `json:"entries"`
}

// Search returns the acronyms matching pattern, best first. A limit of zero
// or less returns every match.
func Search(table Table, pattern string, limit int) []Match {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return nil
	}

	keys := table.Keys()
	found := fuzzy.Find(pattern, keys)
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	matches := make([]Match, len(found))
	for i, m := range found {
		matches[i] = Match{
			Acronym: m.Str,
			Score:   m.Score,
			Entries: len(table[m.Str]),
		}
	}
	return matches
}
