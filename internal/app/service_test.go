package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"myfood/internal/files"
	"myfood/internal/menu"
	"myfood/internal/nutrition"
	"myfood/internal/recipe"
)

const (
	folder    = "folder"
	reference = "ciqual.xlsx"
)

var cols = nutrition.Columns{
	Name:         "alim_nom_fr",
	Energy:       "kcal",
	Protein:      "prot",
	Fat:          "lip",
	Carbohydrate: "gluc",
}

// failingStore fails writes while broken is set.
type failingStore struct {
	files.Store
	broken atomic.Bool
}

func (f *failingStore) Write(ctx context.Context, folder, name, mimeType string, content []byte) (files.File, error) {
	if f.broken.Load() {
		return files.File{}, errors.New("drive unavailable")
	}
	return f.Store.Write(ctx, folder, name, mimeType, content)
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func seed(t *testing.T, fs files.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := fs.Write(ctx, folder, reference, files.MimeXLSX, workbook(t, [][]any{
		{"alim_nom_fr", "kcal", "prot", "lip", "gluc"},
		{"Farine", "350", "10", "1,5", "75"},
		{"Sucre", "400", "0", "0", "100"},
		{"Beurre", "745", "traces", "82", "-"},
	}))
	require.NoError(t, err)

	_, err = fs.Write(ctx, folder, recipe.DefaultFileName, files.MimeJSON, []byte(`[
		{"recipe_id": "r1", "name": "Crêpes", "tags": ["dessert"], "cuisine_type": "Française",
		 "ingredients": [{"name": "Farine", "quantity": 250, "unit": "g"}, {"name": "Sucre", "quantity": 50, "unit": "g"}]},
		{"recipe_id": "r2", "name": "Quatre-quarts", "prep_time": 15, "cook_time": 40, "tags": ["gâteau"],
		 "ingredients": [{"name": "Farine", "quantity": 0.25, "unit": "kg"}, {"name": "Beurre", "quantity": 250, "unit": "g"}, {"name": "Oeufs", "quantity": 4, "unit": "pièce"}]}
	]`))
	require.NoError(t, err)

	_, err = fs.Write(ctx, folder, menu.WeekFileName, files.MimeJSON, []byte(`[
		{"recipe": "Crêpes", "note": "lundi"},
		{"recipe": "Quatre-quarts", "note": "mercredi"},
		{"recipe": "Inconnue", "note": ""},
		{"recipe": "", "note": "libre"}
	]`))
	require.NoError(t, err)
}

func newService(t *testing.T) (*Service, *failingStore) {
	t.Helper()
	fs := &failingStore{Store: files.NewMemoryStore()}
	seed(t, fs)

	svc := NewService(files.NewCache(fs), Options{Folder: folder, ReferenceFile: reference, Columns: cols}, nil)
	require.NoError(t, svc.Load(context.Background()))
	return svc, fs
}

func TestService_Load(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	st := svc.Snapshot()
	assert.Len(t, st.Recipes, 2)
	assert.Len(t, st.Week, 4)
	assert.Empty(t, st.Extras)
	assert.Equal(t, 3, st.Reference.Len())
}

func TestService_LoadEmptyFolder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := files.NewMemoryStore()

	svc := NewService(mem, Options{Folder: folder, ReferenceFile: reference}, nil)
	require.NoError(t, svc.Load(ctx))
	assert.Empty(t, svc.Recipes(recipe.Query{}))
	assert.Empty(t, svc.Ingredients("", 0))

	data, err := mem.Read(ctx, folder, recipe.DefaultFileName)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestService_LoadKeepsAssignedIDsAcrossRestarts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := files.NewMemoryStore()
	_, err := mem.Write(ctx, folder, recipe.DefaultFileName, files.MimeJSON, []byte(`[{"name":"Soup"}]`))
	require.NoError(t, err)

	first := NewService(mem, Options{Folder: folder}, nil)
	require.NoError(t, first.Load(ctx))
	recipes := first.Recipes(recipe.Query{})
	require.Len(t, recipes, 1)
	id := recipes[0].ID
	require.NotEmpty(t, id)

	second := NewService(mem, Options{Folder: folder}, nil)
	require.NoError(t, second.Load(ctx))
	got, err := second.Recipe(id)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Name)
}

func TestService_RecipeCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.CreateRecipe(ctx, &recipe.Recipe{Name: "Tarte", Servings: 6})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Recipe(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tarte", got.Name)

	updated, err := svc.UpdateRecipe(ctx, created.ID, &recipe.Recipe{Name: "Tarte aux pommes", Servings: 8})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	_, err = svc.UpdateRecipe(ctx, created.ID, &recipe.Recipe{Name: "", Servings: 1})
	assert.ErrorIs(t, err, recipe.ErrInvalid)

	require.NoError(t, svc.DeleteRecipe(ctx, created.ID))
	_, err = svc.Recipe(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteRecipe(ctx, created.ID), ErrNotFound)

	// Persisted: a fresh service over the same files sees the catalog.
	reloaded := NewService(svc.files, svc.opts, nil)
	require.NoError(t, reloaded.Load(ctx))
	assert.Len(t, reloaded.Snapshot().Recipes, 2)
}

func TestService_FailedSaveKeepsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fs := newService(t)

	fs.broken.Store(true)
	_, err := svc.CreateRecipe(ctx, &recipe.Recipe{Name: "Perdue", Servings: 1})
	require.Error(t, err)
	assert.Len(t, svc.Snapshot().Recipes, 2)

	require.Error(t, svc.DeleteRecipe(ctx, "r1"))
	_, err = svc.Recipe("r1")
	assert.NoError(t, err)

	_, err = svc.AddExtra(ctx, "sel")
	require.Error(t, err)
	assert.Empty(t, svc.ShoppingList().Extras)
}

func TestService_Filter(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	got := svc.Recipes(recipe.Query{Tags: []string{"gâteau"}})
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)

	assert.Equal(t, []string{"dessert", "gâteau"}, svc.Facets().Tags)
}

func TestService_Nutrition(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	rep, err := svc.Nutrition("r1")
	require.NoError(t, err)
	assert.InDelta(t, 250*3.5+50*4, rep.Totals.Energy, 1e-9)
	assert.True(t, rep.Complete())

	rep, err = svc.NutritionByName("Quatre-quarts")
	require.NoError(t, err)
	assert.InDelta(t, 250*3.5+250*7.45, rep.Totals.Energy, 1e-9)
	assert.InDelta(t, 250*0.015+250*0.82, rep.Totals.Fat, 1e-9)
	assert.Equal(t, 2, rep.Matched)
	assert.Equal(t, 1, rep.Coverage.Carbohydrate)
	assert.False(t, rep.Complete())

	_, err = svc.Nutrition("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ShoppingList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.AddExtra(ctx, "  lessive ")
	require.NoError(t, err)
	_, err = svc.AddExtra(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	list := svc.ShoppingList()
	assert.Equal(t, []string{
		"250 g Farine",
		"50 g Sucre",
		"0.25 kg Farine",
		"250 g Beurre",
		"4 pièce Oeufs",
		"lessive",
	}, list.Lines())

	extras, err := svc.RemoveExtra(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, extras)
	_, err = svc.RemoveExtra(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Week(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t)

	require.NoError(t, svc.SetWeek(ctx, menu.Week{{Recipe: "Crêpes", Note: "dimanche"}}))
	week, err := svc.AddWeekSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, menu.Week{{Recipe: "Crêpes", Note: "dimanche"}, {}}, week)
	assert.Equal(t, []string{"250 g Farine", "50 g Sucre"}, svc.ShoppingList().Lines())
}

func TestService_ReferenceReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fs := newService(t)

	assert.Equal(t, []string{"Beurre", "Farine", "Sucre"}, svc.Ingredients("R", 0))
	assert.Equal(t, []string{"Beurre"}, svc.Ingredients("r", 1))

	_, err := fs.Store.Write(ctx, folder, reference, files.MimeXLSX, workbook(t, [][]any{
		{"alim_nom_fr", "kcal", "prot", "lip", "gluc"},
		{"Sel", "0", "0", "0", "0"},
	}))
	require.NoError(t, err)

	// The cache still serves the old workbook until an explicit reload.
	n, err := svc.ReloadReference(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Sel"}, svc.Ingredients("", 0))

	q := svc.Quality()
	assert.Equal(t, 1, q.Rows)
	require.Len(t, q.Columns, 4)
	assert.Equal(t, 1, q.Columns[0].Trace)
}

func TestService_FilesAndSheet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t)

	list, err := svc.Files(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	grid, err := svc.Sheet(ctx, reference, "", 2)
	require.NoError(t, err)
	assert.Len(t, grid.Rows, 2)
	assert.Equal(t, "alim_nom_fr", grid.Header[0])

	_, err = svc.Sheet(ctx, "missing.xlsx", "", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Sheet(ctx, recipe.DefaultFileName, "", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_RecipeImage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.RecipeImage(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1000, 500))))

	_, err = svc.SetRecipeImage(ctx, "r1", "photo.gif", buf.Bytes())
	assert.ErrorIs(t, err, ErrInvalidInput)

	r, err := svc.SetRecipeImage(ctx, "r1", "photo.png", buf.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, r.ImageFileID)

	data, err := svc.RecipeImage(ctx, "r1")
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)

	// An edit without an image keeps the stored one.
	updated, err := svc.UpdateRecipe(ctx, "r1", &recipe.Recipe{Name: "Crêpes", Servings: 4})
	require.NoError(t, err)
	assert.Equal(t, r.ImageFileID, updated.ImageFileID)

	cleared, err := svc.ClearRecipeImage(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, cleared.ImageFileID)
	_, err = svc.RecipeImage(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ClearRecipeImage(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
