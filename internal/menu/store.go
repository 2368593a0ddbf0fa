package menu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"myfood/internal/files"
)

const (
	WeekFileName   = "week_menu.json"
	ExtrasFileName = "extra_products.json"
)

// FileStore persists the week menu and the extra products as JSON files in
// the remote folder. Missing files read as empty lists.
type FileStore struct {
	files  files.Store
	folder string
}

// NewFileStore creates a FileStore over folder.
func NewFileStore(fs files.Store, folder string) *FileStore {
	return &FileStore{files: fs, folder: folder}
}

// LoadWeek reads the week menu.
func (s *FileStore) LoadWeek(ctx context.Context) (Week, error) {
	week := Week{}
	if err := s.load(ctx, WeekFileName, &week); err != nil {
		return nil, fmt.Errorf("failed to load week menu: %w", err)
	}
	return week, nil
}

// SaveWeek overwrites the week menu.
func (s *FileStore) SaveWeek(ctx context.Context, week Week) error {
	if week == nil {
		week = Week{}
	}
	if err := s.save(ctx, WeekFileName, week); err != nil {
		return fmt.Errorf("failed to save week menu: %w", err)
	}
	return nil
}

// LoadExtras reads the extra products.
func (s *FileStore) LoadExtras(ctx context.Context) (Extras, error) {
	extras := Extras{}
	if err := s.load(ctx, ExtrasFileName, &extras); err != nil {
		return nil, fmt.Errorf("failed to load extra products: %w", err)
	}
	return extras, nil
}

// SaveExtras overwrites the extra products.
func (s *FileStore) SaveExtras(ctx context.Context, extras Extras) error {
	if extras == nil {
		extras = Extras{}
	}
	if err := s.save(ctx, ExtrasFileName, extras); err != nil {
		return fmt.Errorf("failed to save extra products: %w", err)
	}
	return nil
}

func (s *FileStore) load(ctx context.Context, name string, v any) error {
	data, err := s.files.Read(ctx, s.folder, name)
	if errors.Is(err, files.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *FileStore) save(ctx context.Context, name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := s.files.Write(ctx, s.folder, name, files.MimeJSON, buf.Bytes())
	return err
}
