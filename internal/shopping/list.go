// Package shopping aggregates the ingredients of the week's planned recipes
// into a shopping list.
package shopping

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"myfood/internal/menu"
	"myfood/internal/recipe"
)

// Key groups ingredient quantities. Name is lowercased and trimmed; Unit is
// only trimmed, so "G" and "g" stay distinct.
type Key struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// KeyOf returns the aggregation key of an ingredient.
func KeyOf(ing recipe.Ingredient) Key {
	return Key{
		Name: strings.ToLower(strings.TrimSpace(ing.Name)),
		Unit: strings.TrimSpace(ing.Unit),
	}
}

// List is the derived shopping list. It is recomputed from its inputs on
// every request and never stored.
type List struct {
	Quantities map[Key]float64
	order      []Key
}

// Item is one display line of the list.
type Item struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
	Line     string  `json:"line"`
}

// Build sums the ingredients of every assigned entry. An entry resolves to
// the first recipe whose name equals it exactly; unresolvable entries are
// skipped.
func Build(entries []menu.Entry, recipes []*recipe.Recipe) List {
	l := List{Quantities: make(map[Key]float64)}

	for _, e := range entries {
		if !e.Assigned() {
			continue
		}
		r := findByName(recipes, e.Recipe)
		if r == nil {
			continue
		}
		for _, ing := range r.Ingredients {
			k := KeyOf(ing)
			if _, seen := l.Quantities[k]; !seen {
				l.order = append(l.order, k)
			}
			l.Quantities[k] += ing.Quantity
		}
	}

	return l
}

func findByName(recipes []*recipe.Recipe, name string) *recipe.Recipe {
	for _, r := range recipes {
		if r != nil && r.Name == name {
			return r
		}
	}
	return nil
}

// Len reports the number of distinct keys.
func (l List) Len() int {
	return len(l.Quantities)
}

// Items returns the list lines in first-seen order.
func (l List) Items() []Item {
	out := make([]Item, 0, len(l.order))
	for _, k := range l.order {
		q := l.Quantities[k]
		out = append(out, Item{
			Name:     k.Name,
			Unit:     k.Unit,
			Quantity: q,
			Line:     FormatLine(k, q),
		})
	}
	return out
}

// FormatLine renders "<qty> <unit> <Name>", leaving the unit out when empty.
func FormatLine(k Key, quantity float64) string {
	var b strings.Builder
	b.WriteString(recipe.FormatQuantity(quantity))
	if k.Unit != "" {
		b.WriteByte(' ')
		b.WriteString(k.Unit)
	}
	b.WriteByte(' ')
	b.WriteString(capitalize(k.Name))
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
