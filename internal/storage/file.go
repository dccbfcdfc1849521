package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lehigh-university-libraries/fridgechef/internal/models"
)

// FileStore keeps the collection as one JSON document named after Key
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, Key+".json")}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() []models.RecipeSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to load recipes from storage", "path", s.path, "err", err)
		}
		return []models.RecipeSet{}
	}

	var sets []models.RecipeSet
	if err := json.Unmarshal(data, &sets); err != nil {
		slog.Error("Failed to load recipes from storage", "path", s.path, "err", err)
		return []models.RecipeSet{}
	}
	if sets == nil {
		sets = []models.RecipeSet{}
	}

	SortNewestFirst(sets)
	return sets
}

// Save writes to a temp file and renames it over the record
func (s *FileStore) Save(sets []models.RecipeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sets == nil {
		sets = []models.RecipeSet{}
	}
	data, err := json.Marshal(sets)
	if err != nil {
		return fmt.Errorf("failed to encode recipes: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write recipes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write recipes: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace recipes file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear recipes: %w", err)
	}
	return nil
}
