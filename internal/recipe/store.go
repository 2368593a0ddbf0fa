package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"myfood/internal/files"
)

// DefaultFileName is the recipe database file inside the folder.
const DefaultFileName = "food_recipes_database.json"

// Store defines the interface for recipe data operations.
type Store interface {
	LoadRecipes(ctx context.Context) ([]*Recipe, error)
	SaveRecipes(ctx context.Context, recipes []*Recipe) error
}

// FileStore keeps the whole catalog as one JSON array in the remote folder.
type FileStore struct {
	files    files.Store
	folder   string
	fileName string
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore. An empty fileName selects
// DefaultFileName.
func NewFileStore(fs files.Store, folder, fileName string) *FileStore {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &FileStore{files: fs, folder: folder, fileName: fileName}
}

// LoadRecipes reads the catalog, creating an empty database file when the
// folder has none. Records without an identifier get a fresh one, and the
// catalog is written back so the identifier survives the next load.
func (s *FileStore) LoadRecipes(ctx context.Context) ([]*Recipe, error) {
	data, err := s.files.Read(ctx, s.folder, s.fileName)
	if errors.Is(err, files.ErrNotExist) {
		if _, err := s.files.Write(ctx, s.folder, s.fileName, files.MimeJSON, []byte("[]")); err != nil {
			return nil, fmt.Errorf("failed to create recipes database: %w", err)
		}
		return []*Recipe{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	recipes, assigned, err := decode(data)
	if err != nil {
		return nil, err
	}
	if assigned > 0 {
		if err := s.SaveRecipes(ctx, recipes); err != nil {
			return nil, fmt.Errorf("failed to persist %d new recipe ids: %w", assigned, err)
		}
	}
	return recipes, nil
}

// SaveRecipes overwrites the database file with recipes.
func (s *FileStore) SaveRecipes(ctx context.Context, recipes []*Recipe) error {
	data, err := Encode(recipes)
	if err != nil {
		return err
	}
	if _, err := s.files.Write(ctx, s.folder, s.fileName, files.MimeJSON, data); err != nil {
		return fmt.Errorf("failed to save recipes: %w", err)
	}
	return nil
}

// Decode parses a recipe database file. Records without an identifier get a
// fresh one.
func Decode(data []byte) ([]*Recipe, error) {
	recipes, _, err := decode(data)
	return recipes, err
}

// decode is Decode that also reports how many identifiers it assigned.
func decode(data []byte) ([]*Recipe, int, error) {
	recipes := []*Recipe{}
	if len(bytes.TrimSpace(data)) == 0 {
		return recipes, 0, nil
	}
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal recipes: %w", err)
	}
	out := recipes[:0]
	assigned := 0
	for _, r := range recipes {
		if r == nil {
			continue
		}
		if r.ID == "" {
			r.ID = NewID()
			assigned++
		}
		out = append(out, r)
	}
	return out, assigned, nil
}

// Encode renders recipes as indented JSON with non-ASCII text kept as is.
func Encode(recipes []*Recipe) ([]byte, error) {
	if recipes == nil {
		recipes = []*Recipe{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recipes); err != nil {
		return nil, fmt.Errorf("failed to marshal recipes: %w", err)
	}
	return buf.Bytes(), nil
}
