package storage

import (
	"sort"

	"github.com/lehigh-university-libraries/fridgechef/internal/models"
)

// Key names the single durable record holding all saved recipe sets
const Key = "fridgeChefAi-savedRecipes"

// Store persists the full collection of recipe sets.
//
// Load is best-effort: a missing or unreadable record yields an empty slice and
// the failure is logged. Save replaces the whole collection. Clear is idempotent.
type Store interface {
	Load() []models.RecipeSet
	Save(sets []models.RecipeSet) error
	Clear() error
}

// SortNewestFirst orders sets by CreatedAt descending
func SortNewestFirst(sets []models.RecipeSet) {
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].CreatedAt > sets[j].CreatedAt
	})
}

func cloneSets(sets []models.RecipeSet) []models.RecipeSet {
	out := make([]models.RecipeSet, len(sets))
	for i, s := range sets {
		out[i] = s.Clone()
	}
	return out
}
