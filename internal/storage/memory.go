package storage

import (
	"sync"

	"github.com/lehigh-university-libraries/fridgechef/internal/models"
)

// MemoryStore keeps the collection in process memory
type MemoryStore struct {
	sets  []models.RecipeSet
	saves int
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() []models.RecipeSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := cloneSets(s.sets)
	SortNewestFirst(result)
	return result
}

func (s *MemoryStore) Save(sets []models.RecipeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = cloneSets(sets)
	s.saves++
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = nil
	return nil
}

// Saves counts calls to Save
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
