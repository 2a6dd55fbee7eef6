package lookup

import (
	"encoding/json"
	"fmt"
	"strings"

	"macrotrack"
)

// ExtractFacts parses the JSON array between the first '[' and the last ']'
// of the model's text. Models wrap JSON in prose despite instructions.
func ExtractFacts(text string) ([]macrotrack.FoodFact, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoStructuredData
	}

	var facts []macrotrack.FoodFact
	if err := json.Unmarshal([]byte(text[start:end+1]), &facts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]macrotrack.FoodFact, 0, len(facts))
	for _, f := range facts {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
