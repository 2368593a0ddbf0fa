package files

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used for development runs and tests.
// Safe for concurrent access.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[cacheKey]*memFile
	byID  map[string]*memFile
	seq   int
	reads int
}

type memFile struct {
	folder  string
	meta    File
	content []byte
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[cacheKey]*memFile),
		byID:  make(map[string]*memFile),
	}
}

func (s *MemoryStore) List(ctx context.Context, folder string) ([]File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []File
	for _, f := range s.files {
		if f.folder == folder {
			out = append(out, f.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Read(ctx context.Context, folder, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	f, ok := s.files[cacheKey{folder, name}]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), f.content...), nil
}

func (s *MemoryStore) Write(ctx context.Context, folder, name, mimeType string, content []byte) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey{folder, name}
	f, ok := s.files[key]
	if !ok {
		s.seq++
		f = &memFile{folder: folder, meta: File{ID: fmt.Sprintf("mem-%d", s.seq), Name: name}}
		s.files[key] = f
		s.byID[f.meta.ID] = f
	}
	f.content = append([]byte(nil), content...)
	f.meta.MimeType = mimeType
	f.meta.Size = int64(len(content))
	f.meta.Modified = time.Now().UTC()
	return f.meta, nil
}

func (s *MemoryStore) ReadByID(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.byID[id]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), f.content...), nil
}

// ReadCount reports how many Read calls reached the store.
func (s *MemoryStore) ReadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}
