package scanner

import (
	"path/filepath"
	"strings"
)

// Match is how an entry matched a search.
type Match int

// Search results. A file name match takes precedence over a tag match.
const (
	MatchNone Match = iota
	MatchName
	MatchTag
)

// String returns the match kind name.
func (m Match) String() string {
	switch m {
	case MatchName:
		return "name"
	case MatchTag:
		return "tag"
	default:
		return "none"
	}
}

// Search matches query case-insensitively against each entry's file name and then its
// training tags. The result has one Match per entry. Entries whose record is not loaded
// yet are only matched by name.
func Search(entries []*Entry, query string) []Match {
	query = strings.ToLower(query)
	results := make([]Match, len(entries))

	for i, entry := range entries {
		if strings.Contains(strings.ToLower(filepath.Base(entry.Path)), query) {
			results[i] = MatchName
			continue
		}
		if !entry.Loaded() {
			continue
		}
		record, _ := entry.Record()
		for _, f := range record.TagFrequencies {
			if strings.Contains(strings.ToLower(f.Tag), query) {
				results[i] = MatchTag
				break
			}
		}
	}
	return results
}
