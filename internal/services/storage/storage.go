package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recipescout/assistant/internal/config"
	"github.com/recipescout/assistant/internal/models"
)

// Store is the data-access interface the assistant core reads user data
// through. The host application owns the writes; the conversation core
// only ever reads.
type Store interface {
	// Read operations consumed by the context aggregator.
	ListSavedRecipes(ctx context.Context) ([]models.SavedRecipe, error)
	ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error)
	ListMealPlanEntries(ctx context.Context, start, end time.Time) ([]models.MealPlanEntry, error)

	// Write operations used by the host application.
	SaveRecipe(ctx context.Context, recipe models.SavedRecipe) error
	DeleteRecipe(ctx context.Context, id string) error
	AddShoppingItem(ctx context.Context, item models.ShoppingItem) error
	SetItemChecked(ctx context.Context, id string, checked bool) error
	AddMealPlanEntry(ctx context.Context, entry models.MealPlanEntry) error
	Clear(ctx context.Context) error
}

// Manager selects and wraps a storage backend.
type Manager struct {
	store  Store
	logger *logrus.Logger
}

// NewManager creates a storage manager for the configured backend.
func NewManager(cfg *config.Config, logger *logrus.Logger) (*Manager, error) {
	var store Store

	switch cfg.Storage.Type {
	case "redis":
		redisStore, err := NewRedisStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case "memory":
		store = NewMemoryStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	return &Manager{store: store, logger: logger}, nil
}

func (m *Manager) ListSavedRecipes(ctx context.Context) ([]models.SavedRecipe, error) {
	return m.store.ListSavedRecipes(ctx)
}

func (m *Manager) ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error) {
	return m.store.ListShoppingItems(ctx)
}

func (m *Manager) ListMealPlanEntries(ctx context.Context, start, end time.Time) ([]models.MealPlanEntry, error) {
	return m.store.ListMealPlanEntries(ctx, start, end)
}

func (m *Manager) SaveRecipe(ctx context.Context, recipe models.SavedRecipe) error {
	return m.store.SaveRecipe(ctx, recipe)
}

func (m *Manager) DeleteRecipe(ctx context.Context, id string) error {
	return m.store.DeleteRecipe(ctx, id)
}

func (m *Manager) AddShoppingItem(ctx context.Context, item models.ShoppingItem) error {
	return m.store.AddShoppingItem(ctx, item)
}

func (m *Manager) SetItemChecked(ctx context.Context, id string, checked bool) error {
	return m.store.SetItemChecked(ctx, id, checked)
}

func (m *Manager) AddMealPlanEntry(ctx context.Context, entry models.MealPlanEntry) error {
	return m.store.AddMealPlanEntry(ctx, entry)
}

func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// sortRecipes orders recipes by save date, newest first.
func sortRecipes(recipes []models.SavedRecipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].DateSaved.After(recipes[j].DateSaved)
	})
}

// sortItems orders shopping items by date added, newest first.
func sortItems(items []models.ShoppingItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DateAdded.After(items[j].DateAdded)
	})
}

// filterEntries keeps meal plan entries inside [start, end] inclusive
// and orders them by date ascending.
func filterEntries(entries []models.MealPlanEntry, start, end time.Time) []models.MealPlanEntry {
	filtered := make([]models.MealPlanEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Date.Before(start) || entry.Date.After(end) {
			continue
		}
		filtered = append(filtered, entry)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.Before(filtered[j].Date)
	})
	return filtered
}
