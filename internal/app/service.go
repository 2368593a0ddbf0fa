// Package app holds the application state (recipe catalog, week menu, extra
// products and ingredient reference table) and the operations that read and
// mutate it. Every mutation is persisted before it becomes visible.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"myfood/internal/files"
	"myfood/internal/media"
	"myfood/internal/menu"
	"myfood/internal/nutrition"
	"myfood/internal/platform/sheet"
	"myfood/internal/recipe"
	"myfood/internal/shopping"
)

var (
	// ErrNotFound is returned when a recipe, extra product or file is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for rejected user input outside recipes.
	ErrInvalidInput = errors.New("invalid input")
)

// MenuStore persists the week menu and the extra products.
type MenuStore interface {
	LoadWeek(ctx context.Context) (menu.Week, error)
	SaveWeek(ctx context.Context, week menu.Week) error
	LoadExtras(ctx context.Context) (menu.Extras, error)
	SaveExtras(ctx context.Context, extras menu.Extras) error
}

// Options configures a Service.
type Options struct {
	Folder         string
	ReferenceFile  string
	ReferenceSheet string
	Columns        nutrition.Columns
}

// State is the in-memory view of the folder.
type State struct {
	Recipes   []*recipe.Recipe
	Week      menu.Week
	Extras    menu.Extras
	Reference *nutrition.Table
}

// Service implements the application operations over a files.Store.
type Service struct {
	files   files.Store
	recipes recipe.Store
	menus   MenuStore
	opts    Options
	logger  *zap.Logger

	mu    sync.RWMutex
	state State
}

// NewService creates a Service whose recipe, menu and extras files live in
// opts.Folder of fs. Call Load before serving.
func NewService(fs files.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Columns == (nutrition.Columns{}) {
		opts.Columns = nutrition.DefaultColumns
	}
	return &Service{
		files:   fs,
		recipes: recipe.NewFileStore(fs, opts.Folder, ""),
		menus:   menu.NewFileStore(fs, opts.Folder),
		opts:    opts,
		logger:  logger,
		state:   State{Recipes: []*recipe.Recipe{}, Week: menu.Week{}, Extras: menu.Extras{}},
	}
}

// Load reads the catalog, week menu, extras and reference table
// concurrently and replaces the state once all of them succeeded.
func (s *Service) Load(ctx context.Context) error {
	var next State
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		recipes, err := s.recipes.LoadRecipes(gctx)
		next.Recipes = recipes
		return err
	})
	g.Go(func() error {
		week, err := s.menus.LoadWeek(gctx)
		next.Week = week
		return err
	})
	g.Go(func() error {
		extras, err := s.menus.LoadExtras(gctx)
		next.Extras = extras
		return err
	})
	g.Go(func() error {
		table, err := s.loadReference(gctx)
		next.Reference = table
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	s.logger.Info("state loaded",
		zap.Int("recipes", len(next.Recipes)),
		zap.Int("week_entries", len(next.Week)),
		zap.Int("extras", len(next.Extras)),
		zap.Int("reference_rows", next.Reference.Len()),
	)
	return nil
}

// loadReference builds the ingredient table. A missing workbook leaves the
// table empty so the catalog stays usable without nutrition data.
func (s *Service) loadReference(ctx context.Context) (*nutrition.Table, error) {
	if s.opts.ReferenceFile == "" {
		return nutrition.NewTable(s.opts.Columns, nil, nil), nil
	}

	data, err := s.files.Read(ctx, s.opts.Folder, s.opts.ReferenceFile)
	if errors.Is(err, files.ErrNotExist) {
		s.logger.Warn("reference table not found, nutrition disabled", zap.String("file", s.opts.ReferenceFile))
		return nutrition.NewTable(s.opts.Columns, nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}

	grid, err := sheet.Read(data, s.opts.ReferenceSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference table: %w", err)
	}
	return nutrition.NewTable(s.opts.Columns, grid.Header, grid.Rows), nil
}

// ReloadReference drops any cached copy of the reference workbook and reads
// it again.
func (s *Service) ReloadReference(ctx context.Context) (int, error) {
	if inv, ok := s.files.(interface{ Invalidate(folder, name string) }); ok {
		inv.Invalidate(s.opts.Folder, s.opts.ReferenceFile)
	}

	table, err := s.loadReference(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.state.Reference = table
	s.mu.Unlock()

	s.logger.Info("reference table reloaded", zap.Int("rows", table.Len()))
	return table.Len(), nil
}

// Snapshot returns a copy of the state safe to read without locking.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := State{
		Recipes:   make([]*recipe.Recipe, len(s.state.Recipes)),
		Week:      append(menu.Week{}, s.state.Week...),
		Extras:    append(menu.Extras{}, s.state.Extras...),
		Reference: s.state.Reference,
	}
	for i, r := range s.state.Recipes {
		out.Recipes[i] = r.Clone()
	}
	return out
}

// Recipes returns the recipes matching q.
func (s *Service) Recipes(q recipe.Query) []*recipe.Recipe {
	return recipe.Filter(s.Snapshot().Recipes, q)
}

// Facets returns the tags and cuisines in use.
func (s *Service) Facets() recipe.Facets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recipe.CollectFacets(s.state.Recipes)
}

// Recipe returns a copy of the recipe with the given id.
func (s *Service) Recipe(id string) (*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	return s.state.Recipes[i].Clone(), nil
}

func (s *Service) indexOf(id string) int {
	for i, r := range s.state.Recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// CreateRecipe validates r, gives it a fresh id and stores it.
func (s *Service) CreateRecipe(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	created := r.Clone()
	created.ID = recipe.NewID()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(append([]*recipe.Recipe{}, s.state.Recipes...), created)
	if err := s.recipes.SaveRecipes(ctx, next); err != nil {
		return nil, err
	}
	s.state.Recipes = next

	s.logger.Info("recipe created", zap.String("recipe_id", created.ID), zap.String("name", created.Name))
	return created.Clone(), nil
}

// UpdateRecipe replaces the recipe with the given id. The id is kept, and so
// is the image when r carries none; use ClearRecipeImage to remove it.
func (s *Service) UpdateRecipe(ctx context.Context, id string, r *recipe.Recipe) (*recipe.Recipe, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}

	updated := r.Clone()
	updated.ID = id
	if updated.ImageFileID == "" {
		updated.ImageFileID = s.state.Recipes[i].ImageFileID
	}
	if err := s.replace(ctx, i, updated); err != nil {
		return nil, err
	}

	s.logger.Info("recipe updated", zap.String("recipe_id", id))
	return updated.Clone(), nil
}

// replace must be called with mu held.
func (s *Service) replace(ctx context.Context, i int, r *recipe.Recipe) error {
	next := append([]*recipe.Recipe{}, s.state.Recipes...)
	next[i] = r
	if err := s.recipes.SaveRecipes(ctx, next); err != nil {
		return err
	}
	s.state.Recipes = next
	return nil
}

// DeleteRecipe removes the recipe with the given id.
func (s *Service) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}

	next := make([]*recipe.Recipe, 0, len(s.state.Recipes)-1)
	next = append(next, s.state.Recipes[:i]...)
	next = append(next, s.state.Recipes[i+1:]...)
	if err := s.recipes.SaveRecipes(ctx, next); err != nil {
		return err
	}
	s.state.Recipes = next

	s.logger.Info("recipe deleted", zap.String("recipe_id", id))
	return nil
}

// Nutrition computes the totals and coverage of a recipe.
func (s *Service) Nutrition(id string) (nutrition.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nutrition.Report{}, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	return nutrition.Resolve(s.state.Recipes[i].Ingredients, s.state.Reference, s.opts.Columns), nil
}

// NutritionByName resolves the first recipe named name.
func (s *Service) NutritionByName(name string) (nutrition.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.state.Recipes {
		if r.Name == name {
			return nutrition.Resolve(r.Ingredients, s.state.Reference, s.opts.Columns), nil
		}
	}
	return nutrition.Report{}, fmt.Errorf("recipe %q: %w", name, ErrNotFound)
}

// Week returns the week menu.
func (s *Service) Week() menu.Week {
	return s.Snapshot().Week
}

// SetWeek replaces the whole week menu.
func (s *Service) SetWeek(ctx context.Context, week menu.Week) error {
	if week == nil {
		week = menu.Week{}
	}
	week = append(menu.Week{}, week...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.menus.SaveWeek(ctx, week); err != nil {
		return err
	}
	s.state.Week = week
	return nil
}

// AddWeekSlot appends an unassigned entry to the week menu.
func (s *Service) AddWeekSlot(ctx context.Context) (menu.Week, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Week.AddSlot()
	if err := s.menus.SaveWeek(ctx, next); err != nil {
		return nil, err
	}
	s.state.Week = next
	return append(menu.Week{}, next...), nil
}

// ShoppingList is the aggregated list plus the free-text extra products.
type ShoppingList struct {
	Items  []shopping.Item `json:"items"`
	Extras []string        `json:"extras"`
}

// Lines returns the display lines, ingredients first.
func (l ShoppingList) Lines() []string {
	out := make([]string, 0, len(l.Items)+len(l.Extras))
	for _, it := range l.Items {
		out = append(out, it.Line)
	}
	return append(out, l.Extras...)
}

// ShoppingList builds the list for the current week menu.
func (s *Service) ShoppingList() ShoppingList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := shopping.Build(s.state.Week, s.state.Recipes).Items()
	if items == nil {
		items = []shopping.Item{}
	}
	return ShoppingList{
		Items:  items,
		Extras: append([]string{}, s.state.Extras...),
	}
}

// AddExtra appends a trimmed free-text product to the shopping list.
func (s *Service) AddExtra(ctx context.Context, product string) (menu.Extras, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.state.Extras.Add(product)
	if !ok {
		return nil, fmt.Errorf("%w: product is empty", ErrInvalidInput)
	}
	if err := s.menus.SaveExtras(ctx, next); err != nil {
		return nil, err
	}
	s.state.Extras = next
	return append(menu.Extras{}, next...), nil
}

// RemoveExtra deletes the extra product at index i.
func (s *Service) RemoveExtra(ctx context.Context, i int) (menu.Extras, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.state.Extras.Remove(i)
	if !ok {
		return nil, fmt.Errorf("extra product %d: %w", i, ErrNotFound)
	}
	if err := s.menus.SaveExtras(ctx, next); err != nil {
		return nil, err
	}
	s.state.Extras = next
	return append(menu.Extras{}, next...), nil
}

// Ingredients returns reference names containing query, up to limit.
func (s *Service) Ingredients(query string, limit int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.state.Reference.Suggest(query, limit)
	if names == nil {
		names = []string{}
	}
	return names
}

// Quality reports how the reference table's nutrient cells resolve.
func (s *Service) Quality() nutrition.Quality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Reference.Assess()
}

// Files lists the folder.
func (s *Service) Files(ctx context.Context) ([]files.File, error) {
	list, err := s.files.List(ctx, s.opts.Folder)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []files.File{}
	}
	return list, nil
}

// Sheet reads a worksheet of an xlsx file in the folder, keeping at most
// limit rows.
func (s *Service) Sheet(ctx context.Context, name, sheetName string, limit int) (*sheet.Grid, error) {
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return nil, fmt.Errorf("%w: %s is not an xlsx file", ErrInvalidInput, name)
	}
	data, err := s.files.Read(ctx, s.opts.Folder, name)
	if errors.Is(err, files.ErrNotExist) {
		return nil, fmt.Errorf("file %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	grid, err := sheet.Read(data, sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return grid.Limit(limit), nil
}

// SetRecipeImage resizes and uploads a photo, then points the recipe at it.
func (s *Service) SetRecipeImage(ctx context.Context, id, filename string, data []byte) (*recipe.Recipe, error) {
	ext, err := media.Extension(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	prepared, err := media.Prepare(data, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}

	f, err := s.files.Write(ctx, s.opts.Folder, media.FileName(prepared, ext), media.MimeType(ext), prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	updated := s.state.Recipes[i].Clone()
	updated.ImageFileID = f.ID
	if err := s.replace(ctx, i, updated); err != nil {
		return nil, err
	}

	s.logger.Info("recipe image stored", zap.String("recipe_id", id), zap.String("file_id", f.ID))
	return updated.Clone(), nil
}

// ClearRecipeImage detaches the photo from a recipe. The image file stays in
// the folder.
func (s *Service) ClearRecipeImage(ctx context.Context, id string) (*recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	if s.state.Recipes[i].ImageFileID == "" {
		return s.state.Recipes[i].Clone(), nil
	}

	updated := s.state.Recipes[i].Clone()
	updated.ImageFileID = ""
	if err := s.replace(ctx, i, updated); err != nil {
		return nil, err
	}

	s.logger.Info("recipe image cleared", zap.String("recipe_id", id))
	return updated.Clone(), nil
}

// RecipeImage downloads the photo of a recipe.
func (s *Service) RecipeImage(ctx context.Context, id string) ([]byte, error) {
	r, err := s.Recipe(id)
	if err != nil {
		return nil, err
	}
	if r.ImageFileID == "" {
		return nil, fmt.Errorf("image of recipe %s: %w", id, ErrNotFound)
	}

	data, err := s.files.ReadByID(ctx, r.ImageFileID)
	if errors.Is(err, files.ErrNotExist) {
		return nil, fmt.Errorf("image of recipe %s: %w", id, ErrNotFound)
	}
	return data, err
}
