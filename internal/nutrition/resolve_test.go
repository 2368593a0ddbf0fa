package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfood/internal/recipe"
)

var testColumns = Columns{
	Name:         "name",
	Energy:       "kcal",
	Protein:      "protein",
	Fat:          "fat",
	Carbohydrate: "carbs",
}

func testTable() *Table {
	header := []string{"name", "kcal", "protein", "fat", "carbs"}
	return NewTable(testColumns, header, [][]string{
		{"Sugar", "400", "0", "0", "99,8"},
		{"Butter", "745", "0,7", "82", "traces"},
		{"Salt", "0", "0", "0", "0"},
		{"Mystery", "-", "", "n/a", "<1"},
		{"Sugar", "1", "1", "1", "1"},
	})
}

func TestCompute_Grams(t *testing.T) {
	t.Parallel()

	got := Compute([]recipe.Ingredient{{Name: "Sugar", Quantity: 200, Unit: "g"}}, testTable(), testColumns)
	assert.InDelta(t, 800.0, got.Energy, 1e-9)
	assert.InDelta(t, 199.6, got.Carbohydrate, 1e-9)
}

func TestCompute_Kilograms(t *testing.T) {
	t.Parallel()

	got := Compute([]recipe.Ingredient{{Name: "Sugar", Quantity: 0.2, Unit: "kg"}}, testTable(), testColumns)
	assert.InDelta(t, 800.0, got.Energy, 1e-9)
}

func TestCompute_UnmatchedIngredient(t *testing.T) {
	t.Parallel()

	got := Compute([]recipe.Ingredient{{Name: "Unicorn", Quantity: 100, Unit: "g"}}, testTable(), testColumns)
	assert.Equal(t, Totals{}, got)
}

func TestCompute_NameMatchIsCaseSensitive(t *testing.T) {
	t.Parallel()

	got := Compute([]recipe.Ingredient{{Name: "sugar", Quantity: 100, Unit: "g"}}, testTable(), testColumns)
	assert.Equal(t, Totals{}, got)
}

func TestCompute_UnsupportedUnit(t *testing.T) {
	t.Parallel()

	got := Compute([]recipe.Ingredient{{Name: "Sugar", Quantity: 1, Unit: "cup"}}, testTable(), testColumns)
	assert.Equal(t, Totals{}, got)
}

func TestCompute_EmptyInputs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Totals{}, Compute(nil, testTable(), testColumns))
	assert.Equal(t, Totals{}, Compute([]recipe.Ingredient{{Name: "Sugar", Quantity: 1, Unit: "g"}}, nil, testColumns))

	var nilTable *Table
	assert.Equal(t, Totals{}, Compute([]recipe.Ingredient{{Name: "Sugar", Quantity: 1, Unit: "g"}}, nilTable, testColumns))
}

func TestResolve_Report(t *testing.T) {
	t.Parallel()

	rep := Resolve([]recipe.Ingredient{
		{Name: "Sugar", Quantity: 100, Unit: "g"},
		{Name: "Butter", Quantity: 50, Unit: " G "},
		{Name: "Mystery", Quantity: 100, Unit: "g"},
		{Name: "Eggs", Quantity: 2, Unit: ""},
		{Name: "Unicorn", Quantity: 10, Unit: "g"},
	}, testTable(), testColumns)

	require.Len(t, rep.Ingredients, 5)
	assert.Equal(t, StatusMatched, rep.Ingredients[0].Status)
	assert.Equal(t, StatusMatched, rep.Ingredients[1].Status)
	assert.Equal(t, StatusMatched, rep.Ingredients[2].Status)
	assert.Equal(t, StatusUnsupportedUnit, rep.Ingredients[3].Status)
	assert.Equal(t, StatusUnmatched, rep.Ingredients[4].Status)
	assert.Equal(t, 3, rep.Matched)

	// Mystery only carries a carbohydrate value ("<1" halves to 0.5).
	assert.Equal(t, Coverage{Energy: 2, Protein: 2, Fat: 2, Carbohydrate: 3}, rep.Coverage)
	assert.InDelta(t, 400+372.5, rep.Totals.Energy, 1e-9)
	assert.InDelta(t, 41, rep.Totals.Fat, 1e-9)
	assert.InDelta(t, 99.8+0.5, rep.Totals.Carbohydrate, 1e-9)
	assert.False(t, rep.Complete())
}

func TestResolve_CompleteReport(t *testing.T) {
	t.Parallel()

	rep := Resolve([]recipe.Ingredient{{Name: "Salt", Quantity: 5, Unit: "g"}}, testTable(), testColumns)
	assert.True(t, rep.Complete())
	assert.Equal(t, Totals{}, rep.Totals)
}

func TestTable_LookupFirstDuplicateWins(t *testing.T) {
	t.Parallel()

	row, ok := testTable().Lookup("Sugar")
	require.True(t, ok)
	assert.Equal(t, "400", row.Get("kcal", nil))
	assert.Equal(t, "fallback", row.Get("missing column", "fallback"))
}

func TestTable_NamesAndSuggest(t *testing.T) {
	t.Parallel()

	table := testTable()
	assert.Equal(t, []string{"Butter", "Mystery", "Salt", "Sugar"}, table.Names())
	assert.Equal(t, []string{"Butter"}, table.Suggest("utt", 3))
	assert.Len(t, table.Suggest("", 2), 2)
}

func TestTable_Assess(t *testing.T) {
	t.Parallel()

	q := testTable().Assess()
	assert.Equal(t, 5, q.Rows)
	require.Len(t, q.Columns, 4)
	assert.Equal(t, ColumnQuality{Column: "kcal", Numeric: 3, Trace: 1, Missing: 1}, q.Columns[0])
	assert.Equal(t, ColumnQuality{Column: "carbs", Numeric: 3, Trace: 2}, q.Columns[3])
}
