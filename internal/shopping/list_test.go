package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfood/internal/menu"
	"myfood/internal/recipe"
)

func catalog() []*recipe.Recipe {
	return []*recipe.Recipe{
		{ID: "1", Name: "Pancakes", Ingredients: []recipe.Ingredient{
			{Name: "Flour", Quantity: 100, Unit: "g"},
			{Name: "Eggs", Quantity: 2},
		}},
		{ID: "2", Name: "Crepes", Ingredients: []recipe.Ingredient{
			{Name: " flour ", Quantity: 50, Unit: "g "},
			{Name: "Milk", Quantity: 0.5, Unit: "l"},
		}},
		{ID: "3", Name: "Pancakes", Ingredients: []recipe.Ingredient{
			{Name: "Something else", Quantity: 1, Unit: "kg"},
		}},
	}
}

func TestBuild_SumsAcrossRecipes(t *testing.T) {
	t.Parallel()

	l := Build([]menu.Entry{{Recipe: "Pancakes"}, {Recipe: "Crepes", Note: "monday"}}, catalog())

	assert.Equal(t, 150.0, l.Quantities[Key{Name: "flour", Unit: "g"}])
	assert.Equal(t, 2.0, l.Quantities[Key{Name: "eggs", Unit: ""}])
	assert.Equal(t, 0.5, l.Quantities[Key{Name: "milk", Unit: "l"}])
	assert.Equal(t, 3, l.Len())
}

func TestBuild_FirstRecipeWithNameWins(t *testing.T) {
	t.Parallel()

	l := Build([]menu.Entry{{Recipe: "Pancakes"}}, catalog())
	_, found := l.Quantities[Key{Name: "something else", Unit: "kg"}]
	assert.False(t, found)
}

func TestBuild_SkipsUnassignedAndUnknown(t *testing.T) {
	t.Parallel()

	l := Build([]menu.Entry{{Recipe: ""}, {Recipe: "Lasagna"}, {Recipe: "pancakes"}}, catalog())
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Items())
}

func TestBuild_EmptyInputs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Build(nil, nil).Len())
	assert.Equal(t, 0, Build([]menu.Entry{{Recipe: "Pancakes"}}, nil).Len())
}

// Units are trimmed but not case-folded, so "G" and "g" do not merge.
func TestBuild_UnitCaseIsNotNormalized(t *testing.T) {
	t.Parallel()

	recipes := []*recipe.Recipe{{Name: "Bread", Ingredients: []recipe.Ingredient{
		{Name: "Flour", Quantity: 100, Unit: "g"},
		{Name: "FLOUR", Quantity: 200, Unit: "G"},
	}}}

	l := Build([]menu.Entry{{Recipe: "Bread"}}, recipes)
	assert.Equal(t, 100.0, l.Quantities[Key{Name: "flour", Unit: "g"}])
	assert.Equal(t, 200.0, l.Quantities[Key{Name: "flour", Unit: "G"}])
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	entries := []menu.Entry{{Recipe: "Pancakes"}, {Recipe: "Pancakes"}, {Recipe: "Crepes"}}
	recipes := catalog()

	first := Build(entries, recipes)
	second := Build(entries, recipes)
	assert.Equal(t, first.Quantities, second.Quantities)
	assert.Equal(t, first.Items(), second.Items())
	assert.Equal(t, 250.0, first.Quantities[Key{Name: "flour", Unit: "g"}])
}

func TestItems_FirstSeenOrderAndFormat(t *testing.T) {
	t.Parallel()

	items := Build([]menu.Entry{{Recipe: "Crepes"}, {Recipe: "Pancakes"}}, catalog()).Items()
	require.Len(t, items, 3)
	assert.Equal(t, "150 g Flour", items[0].Line)
	assert.Equal(t, "0.5 l Milk", items[1].Line)
	assert.Equal(t, "2 Eggs", items[2].Line)
}

func TestFormatLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  Key
		qty  float64
		want string
	}{
		{name: "integer quantity", key: Key{Name: "sugar", Unit: "g"}, qty: 200, want: "200 g Sugar"},
		{name: "fraction", key: Key{Name: "milk", Unit: "l"}, qty: 0.25, want: "0.25 l Milk"},
		{name: "no unit", key: Key{Name: "eggs"}, qty: 3, want: "3 Eggs"},
		{name: "accented name", key: Key{Name: "échalote", Unit: "g"}, qty: 30, want: "30 g Échalote"},
		{name: "float noise", key: Key{Name: "oil", Unit: "ml"}, qty: 0.1 + 0.2, want: "0.3 ml Oil"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FormatLine(tc.key, tc.qty))
		})
	}
}
