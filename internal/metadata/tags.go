package metadata

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
)

// TagFrequency is the total weight of one training tag across all dataset groups.
type TagFrequency struct {
	Tag    string  `json:"tag"`
	Weight float64 `json:"weight"`
}

// AggregateTags returns the tag frequencies stored under TagFrequencyKey. A missing key
// or a value ParseTagFrequencies rejects yields an empty result.
func AggregateTags(metadata map[string]string) []TagFrequency {
	raw, ok := metadata[TagFrequencyKey]
	if !ok {
		return []TagFrequency{}
	}

	frequencies, err := ParseTagFrequencies(raw)
	if err != nil {
		log.Debug("ignoring tag frequencies", "error", err)
		return []TagFrequency{}
	}
	return frequencies
}

// ParseTagFrequencies sums the per-group tag weights of raw, a JSON object mapping group
// names to objects of tag weights, and returns them by descending weight. Equal weights
// are ordered by tag. Anything but an object of objects of numbers is an error; a
// top-level null is read as no groups.
func ParseTagFrequencies(raw string) ([]TagFrequency, error) {
	var groups map[string]map[string]*float64
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", TagFrequencyKey, err)
	}

	totals := make(map[string]float64)
	for group, tags := range groups {
		if tags == nil {
			return nil, fmt.Errorf("failed to parse %s: group %q is not an object", TagFrequencyKey, group)
		}
		for tag, weight := range tags {
			if weight == nil {
				return nil, fmt.Errorf("failed to parse %s: tag %q in group %q has no weight", TagFrequencyKey, tag, group)
			}
			totals[tag] += *weight
		}
	}

	frequencies := make([]TagFrequency, 0, len(totals))
	for tag, weight := range totals {
		frequencies = append(frequencies, TagFrequency{Tag: tag, Weight: weight})
	}
	sort.Slice(frequencies, func(i, j int) bool {
		if frequencies[i].Weight != frequencies[j].Weight {
			return frequencies[i].Weight > frequencies[j].Weight
		}
		return frequencies[i].Tag < frequencies[j].Tag
	})

	return frequencies, nil
}
