package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalid is returned when a recipe fails validation.
var ErrInvalid = errors.New("invalid recipe")

// Ingredient is one line of a recipe. It is recreated wholesale on edit.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
}

// FormattedQuantity renders the quantity without trailing zeros.
func (i Ingredient) FormattedQuantity() string {
	return FormatQuantity(i.Quantity)
}

// FormatQuantity formats q like a general-format float: at most six
// significant digits, no trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'g', 6, 64)
}

// Recipe represents a stored recipe. ID is generated on creation and kept
// across edits; Name is not unique.
type Recipe struct {
	ID           string       `json:"recipe_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	PrepTime     int          `json:"prep_time"`
	CookTime     int          `json:"cook_time"`
	Servings     int          `json:"servings"`
	CuisineType  string       `json:"cuisine_type"`
	Tags         []string     `json:"tags"`
	Utensils     []string     `json:"utensils"`
	ImageFileID  string       `json:"image_file_id"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Recipe.
// Absent fields take the same defaults as a freshly created recipe.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type Alias Recipe // Create an alias to avoid infinite recursion
	aux := &struct {
		Servings *int `json:"servings"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Servings = 1
	if aux.Servings != nil {
		r.Servings = *aux.Servings
	}
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Utensils == nil {
		r.Utensils = []string{}
	}

	return nil
}

// NewID returns a fresh recipe identifier.
func NewID() string {
	return uuid.NewString()
}

// TotalTime is preparation plus cooking time, in minutes.
func (r *Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// Validate checks the invariants a recipe must hold before it is stored.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if r.PrepTime < 0 {
		return fmt.Errorf("%w: prep_time must not be negative", ErrInvalid)
	}
	if r.CookTime < 0 {
		return fmt.Errorf("%w: cook_time must not be negative", ErrInvalid)
	}
	if r.Servings < 1 {
		return fmt.Errorf("%w: servings must be at least 1", ErrInvalid)
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("%w: ingredient %d has no name", ErrInvalid, i+1)
		}
		if ing.Quantity < 0 {
			return fmt.Errorf("%w: ingredient %q has a negative quantity", ErrInvalid, ing.Name)
		}
	}
	return nil
}

// Clone returns a deep copy of the recipe.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.Ingredients = append([]Ingredient{}, r.Ingredients...)
	c.Instructions = append([]string{}, r.Instructions...)
	c.Tags = append([]string{}, r.Tags...)
	c.Utensils = append([]string{}, r.Utensils...)
	return &c
}

// Summary is the tabular view of a recipe used for listings.
type Summary struct {
	ID              string `json:"recipe_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	PrepTime        int    `json:"prep_time"`
	CookTime        int    `json:"cook_time"`
	TotalTime       int    `json:"total_time"`
	Servings        int    `json:"servings"`
	CuisineType     string `json:"cuisine_type"`
	Tags            string `json:"tags"`
	IngredientCount int    `json:"ingredient_count"`
	HasImage        bool   `json:"has_image"`
}

// Summarize returns the listing row for r.
func (r *Recipe) Summarize() Summary {
	return Summary{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		PrepTime:        r.PrepTime,
		CookTime:        r.CookTime,
		TotalTime:       r.TotalTime(),
		Servings:        r.Servings,
		CuisineType:     r.CuisineType,
		Tags:            strings.Join(r.Tags, ", "),
		IngredientCount: len(r.Ingredients),
		HasImage:        r.ImageFileID != "",
	}
}

// SplitList splits a comma separated field, dropping blank items.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
