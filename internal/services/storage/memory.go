package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/recipescout/assistant/internal/config"
	"github.com/recipescout/assistant/internal/models"
)

// MemoryStore keeps user data in process memory. Used by tests and by
// the CLI when no redis instance is configured.
type MemoryStore struct {
	recipes *cache.Cache
	items   *cache.Cache
	meals   *cache.Cache
	logger  *logrus.Logger
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(cfg *config.Config, logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		recipes: cache.New(cache.NoExpiration, cfg.Storage.Memory.CleanupInterval),
		items:   cache.New(cache.NoExpiration, cfg.Storage.Memory.CleanupInterval),
		meals:   cache.New(cache.NoExpiration, cfg.Storage.Memory.CleanupInterval),
		logger:  logger,
	}
}

func (m *MemoryStore) ListSavedRecipes(ctx context.Context) ([]models.SavedRecipe, error) {
	entries := m.recipes.Items()
	recipes := make([]models.SavedRecipe, 0, len(entries))
	for _, entry := range entries {
		recipes = append(recipes, entry.Object.(models.SavedRecipe))
	}
	sortRecipes(recipes)
	return recipes, nil
}

func (m *MemoryStore) ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error) {
	entries := m.items.Items()
	items := make([]models.ShoppingItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entry.Object.(models.ShoppingItem))
	}
	sortItems(items)
	return items, nil
}

func (m *MemoryStore) ListMealPlanEntries(ctx context.Context, start, end time.Time) ([]models.MealPlanEntry, error) {
	entries := m.meals.Items()
	meals := make([]models.MealPlanEntry, 0, len(entries))
	for _, entry := range entries {
		meals = append(meals, entry.Object.(models.MealPlanEntry))
	}
	return filterEntries(meals, start, end), nil
}

func (m *MemoryStore) SaveRecipe(ctx context.Context, recipe models.SavedRecipe) error {
	m.recipes.Set(recipe.ID, recipe, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) DeleteRecipe(ctx context.Context, id string) error {
	m.recipes.Delete(id)
	return nil
}

func (m *MemoryStore) AddShoppingItem(ctx context.Context, item models.ShoppingItem) error {
	m.items.Set(item.ID, item, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) SetItemChecked(ctx context.Context, id string, checked bool) error {
	val, found := m.items.Get(id)
	if !found {
		return fmt.Errorf("shopping item not found: %s", id)
	}
	item := val.(models.ShoppingItem)
	item.IsChecked = checked
	m.items.Set(id, item, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) AddMealPlanEntry(ctx context.Context, entry models.MealPlanEntry) error {
	m.meals.Set(entry.ID, entry, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.recipes.Flush()
	m.items.Flush()
	m.meals.Flush()
	return nil
}
