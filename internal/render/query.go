package render

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Query runs a jq expression over the JSON form of v and returns every result.
func Query(expr string, v any) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	// gojq works on plain JSON values, not Go structs.
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}

	var results []any
	iter := query.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := result.(error); ok {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}
