package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFood is returned by importers when a photo shows no dish or recipe.
var ErrNotFood = errors.New("image does not contain food")

// DraftPrompt asks a vision model for a recipe in the catalog's JSON shape.
const DraftPrompt = "Read the recipe shown in this image, or if it is a photo of a dish, write a plausible recipe for it. " +
	"Return a single, clean JSON object with the keys: 'name' (string), 'description' (string), " +
	"'ingredients' (array of objects with 'name' (string), 'quantity' (number), 'unit' (string, prefer 'g' or 'kg'), 'notes' (string)), " +
	"'instructions' (array of strings), 'prep_time' (integer minutes), 'cook_time' (integer minutes), 'servings' (integer), " +
	"'cuisine_type' (string), 'tags' (array of strings) and 'utensils' (array of strings). " +
	"If the image contains no food and no recipe, respond with 'NO' followed by a 5-word description of the image content. " +
	"The JSON response should be clean and not contain any markdown formatting."

// ParseDraft extracts the JSON object from a model answer, which might be
// wrapped in markdown, and decodes it into an unsaved recipe.
func ParseDraft(text string) (*Recipe, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(trimmed), "no") && !strings.Contains(trimmed, "{") {
		return nil, fmt.Errorf("%w: %s", ErrNotFood, trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || start > end {
		return nil, fmt.Errorf("could not find JSON object in response: %s", trimmed)
	}

	var r Recipe
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	r.ID = ""
	r.ImageFileID = ""
	if r.Servings < 1 {
		r.Servings = 1
	}
	return &r, nil
}
