package recipe

import (
	"sort"
	"strings"
)

// SortBy selects the ordering of a recipe listing.
type SortBy string

const (
	SortByName      SortBy = "name"
	SortByPrepTime  SortBy = "prep_time"
	SortByTotalTime SortBy = "total_time"
)

// Query holds the browse filters. Zero values disable a filter.
type Query struct {
	Search  string
	Tags    []string
	Cuisine string
	Sort    SortBy
}

// Filter returns the recipes matching q, in the order q.Sort asks for.
// The input slice is left untouched.
func Filter(recipes []*Recipe, q Query) []*Recipe {
	out := make([]*Recipe, 0, len(recipes))
	search := strings.ToLower(q.Search)

	for _, r := range recipes {
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		if len(q.Tags) > 0 && !hasAnyTag(r, q.Tags) {
			continue
		}
		if q.Cuisine != "" && !strings.EqualFold(q.Cuisine, r.CuisineType) {
			continue
		}
		out = append(out, r)
	}

	Sort(out, q.Sort)
	return out
}

func matchesSearch(r *Recipe, search string) bool {
	if strings.Contains(strings.ToLower(r.Name), search) ||
		strings.Contains(strings.ToLower(r.Description), search) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), search) {
			return true
		}
	}
	return false
}

func hasAnyTag(r *Recipe, tags []string) bool {
	for _, want := range tags {
		for _, have := range r.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Sort orders recipes in place. Ties keep their catalog order.
func Sort(recipes []*Recipe, by SortBy) {
	switch by {
	case SortByPrepTime:
		sort.SliceStable(recipes, func(i, j int) bool { return recipes[i].PrepTime < recipes[j].PrepTime })
	case SortByTotalTime:
		sort.SliceStable(recipes, func(i, j int) bool { return recipes[i].TotalTime() < recipes[j].TotalTime() })
	default:
		sort.SliceStable(recipes, func(i, j int) bool { return recipes[i].Name < recipes[j].Name })
	}
}

// Facets lists the values the browse filters can take.
type Facets struct {
	Tags     []string `json:"tags"`
	Cuisines []string `json:"cuisines"`
}

// CollectFacets returns sorted unique tags and non-empty cuisine types.
func CollectFacets(recipes []*Recipe) Facets {
	tags := map[string]struct{}{}
	cuisines := map[string]struct{}{}
	for _, r := range recipes {
		for _, t := range r.Tags {
			tags[t] = struct{}{}
		}
		if r.CuisineType != "" {
			cuisines[r.CuisineType] = struct{}{}
		}
	}
	return Facets{Tags: sortedKeys(tags), Cuisines: sortedKeys(cuisines)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
