// Package menu holds the free-form weekly plan and the extra products added
// to the shopping list by hand.
package menu

import (
	"fmt"
	"strings"
)

// Entry is one planned slot. An empty Recipe means the slot is unassigned.
type Entry struct {
	Recipe string `json:"recipe"`
	Note   string `json:"note"`
}

// Assigned reports whether the entry references a recipe.
func (e Entry) Assigned() bool {
	return e.Recipe != ""
}

// Week is the ordered weekly plan.
type Week []Entry

// AddSlot appends an unassigned entry.
func (w Week) AddSlot() Week {
	out := make(Week, 0, len(w)+1)
	out = append(out, w...)
	return append(out, Entry{})
}

// Summary lists the assigned entries as "<recipe> : <note>".
func (w Week) Summary() []string {
	var out []string
	for _, e := range w {
		if e.Assigned() {
			out = append(out, fmt.Sprintf("%s : %s", e.Recipe, e.Note))
		}
	}
	return out
}

// Extras are free-text products that do not come from a recipe.
type Extras []string

// Add appends the trimmed product, ignoring blank input.
func (x Extras) Add(product string) (Extras, bool) {
	p := strings.TrimSpace(product)
	if p == "" {
		return x, false
	}
	out := make(Extras, 0, len(x)+1)
	out = append(out, x...)
	return append(out, p), true
}

// Remove drops the product at index i.
func (x Extras) Remove(i int) (Extras, bool) {
	if i < 0 || i >= len(x) {
		return x, false
	}
	out := make(Extras, 0, len(x)-1)
	out = append(out, x[:i]...)
	return append(out, x[i+1:]...), true
}
