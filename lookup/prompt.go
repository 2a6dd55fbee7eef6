package lookup

import "fmt"

const defaultMaxResults = 5

// NewPrompt asks the model for up to maxResults nutrition records for the query
// in a fixed JSON array shape.
func NewPrompt(query string, maxResults int) string {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return fmt.Sprintf(promptTemplate, query, maxResults)
}

const promptTemplate string = `Given the food query %q, provide nutritional information in this exact JSON format:
[
  {
    "name": "Food Name",
    "calories": number (kcal per 100g),
    "protein": number in grams per 100g,
    "fats": number in grams per 100g,
    "carbs": number in grams per 100g
  }
]
Return up to %d relevant food items, most relevant first. Only return the JSON array, no other text, no markdown, no code fences.`
