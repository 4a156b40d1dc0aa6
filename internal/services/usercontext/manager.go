// Package usercontext aggregates the user's saved recipes, shopping
// list, and meal plan into the natural-language context injected into
// the system prompt, honoring the per-source privacy flags.
package usercontext

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recipescout/assistant/internal/middleware"
	"github.com/recipescout/assistant/internal/models"
	"github.com/recipescout/assistant/internal/services/storage"
	"github.com/recipescout/assistant/internal/timectx"
)

const (
	mediumDate = "Jan 2, 2006"
	fullDate   = "Monday, January 2, 2006"
)

const appOverview = `You are a helpful AI assistant for RecipeScout, a recipe and meal planning app.
You help users with:
- Finding and understanding recipes
- Meal planning and preparation advice
- Shopping list management
- Food and cooking questions
- Nutritional information
- Ingredient substitutions`

// Manager builds prompt context and statistics from the data store.
type Manager struct {
	store   storage.Store
	logger  *logrus.Logger
	metrics *middleware.Metrics

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a context manager over the given store.
func NewManager(store storage.Store, logger *logrus.Logger, metrics *middleware.Metrics) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// BuildContext renders the complete context block for prompt injection.
// Section order is fixed regardless of flag combinations: app overview,
// time context, saved recipes, meal plan, shopping list, privacy
// notice. Sources the user disabled contribute a "cannot see" sentence
// instead of data; enabled-but-empty sources say so explicitly so the
// assistant can honestly report absence instead of guessing.
func (m *Manager) BuildContext(ctx context.Context, flags models.PrivacyFlags) string {
	start := time.Now()
	defer func() {
		m.metrics.RecordContextBuild(time.Since(start))
	}()

	contextParts := []string{appOverview, timectx.ContextBlock(m.now())}

	privacyNotice := "DATA ACCESS PERMISSIONS:"

	if flags.IncludeSavedRecipes {
		recipes := m.savedRecipes(ctx)
		if len(recipes) > 0 {
			contextParts = append(contextParts, savedRecipesSection(recipes))
			privacyNotice += "\n✓ You CAN see the user's saved recipes"
		} else {
			privacyNotice += "\n✓ Saved recipes access is enabled, but the user has no saved recipes"
		}
	} else {
		privacyNotice += "\n✗ You CANNOT see saved recipes (user has disabled this data source)"
	}

	if flags.IncludeMealPlan {
		entries := m.mealPlanEntries(ctx)
		if len(entries) > 0 {
			contextParts = append(contextParts, mealPlanSection(entries))
			privacyNotice += "\n✓ You CAN see the user's meal plan"
		} else {
			privacyNotice += "\n✓ Meal plan access is enabled, but the user has no planned meals"
		}
	} else {
		privacyNotice += "\n✗ You CANNOT see the meal plan (user has disabled this data source)"
	}

	if flags.IncludeShoppingList {
		items := m.shoppingItems(ctx)
		if len(items) > 0 {
			contextParts = append(contextParts, shoppingListSection(items))
			privacyNotice += "\n✓ You CAN see the user's shopping list"
		} else {
			privacyNotice += "\n✓ Shopping list access is enabled, but the user has no items"
		}
	} else {
		privacyNotice += "\n✗ You CANNOT see the shopping list (user has disabled this data source)"
	}

	privacyNotice += "\n\nIMPORTANT: If you cannot see a data source, do NOT make up information about it. Tell the user you don't have access to that information."

	contextParts = append(contextParts, privacyNotice)

	return strings.Join(contextParts, "\n\n")
}

// UserStatistics computes the statistics snapshot. It always reads all
// three sources: privacy flags gate the prose context only, not in-app
// counts.
func (m *Manager) UserStatistics(ctx context.Context) models.UserStatistics {
	recipes := m.savedRecipes(ctx)
	items := m.shoppingItems(ctx)
	entries := m.mealPlanEntries(ctx)

	return models.UserStatistics{
		SavedRecipeCount:  len(recipes),
		ShoppingItemCount: len(items),
		UpcomingMealCount: len(entries),
		FavoriteCuisines:  favoriteCuisines(recipes),
	}
}

// savedRecipes reads the saved recipes, treating a store failure as an
// empty source.
func (m *Manager) savedRecipes(ctx context.Context) []models.SavedRecipe {
	recipes, err := m.store.ListSavedRecipes(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to read saved recipes, treating as empty")
		m.metrics.RecordStorageRead(string(models.SourceSavedRecipes), "error")
		return nil
	}
	m.metrics.RecordStorageRead(string(models.SourceSavedRecipes), "success")
	return recipes
}

func (m *Manager) shoppingItems(ctx context.Context) []models.ShoppingItem {
	items, err := m.store.ListShoppingItems(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to read shopping items, treating as empty")
		m.metrics.RecordStorageRead(string(models.SourceShoppingList), "error")
		return nil
	}
	m.metrics.RecordStorageRead(string(models.SourceShoppingList), "success")
	return items
}

// mealPlanEntries reads meal plan entries in the inclusive 7-day window
// starting at the beginning of the current day.
func (m *Manager) mealPlanEntries(ctx context.Context) []models.MealPlanEntry {
	now := m.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 7)

	entries, err := m.store.ListMealPlanEntries(ctx, start, end)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to read meal plan, treating as empty")
		m.metrics.RecordStorageRead(string(models.SourceMealPlan), "error")
		return nil
	}
	m.metrics.RecordStorageRead(string(models.SourceMealPlan), "success")
	return entries
}

func savedRecipesSection(recipes []models.SavedRecipe) string {
	lines := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		line := fmt.Sprintf("- %s [Cuisine: %s, Category: %s] (saved on %s)",
			recipe.Name, recipe.Cuisine, recipe.Category, recipe.DateSaved.Format(mediumDate))
		lines = append(lines, line)
	}

	section := fmt.Sprintf(`USER DATA - SAVED RECIPES:
The user has %d saved recipe(s) in their collection.
Here are all their saved recipes:
%s`, len(recipes), strings.Join(lines, "\n"))

	if cuisines := favoriteCuisines(recipes); len(cuisines) > 0 {
		section += fmt.Sprintf("\n\nThe user's favorite cuisines (based on saved recipes): %s",
			strings.Join(cuisines, ", "))
	}

	return section
}

func shoppingListSection(items []models.ShoppingItem) string {
	var unchecked, checked []models.ShoppingItem
	for _, item := range items {
		if item.IsChecked {
			checked = append(checked, item)
		} else {
			unchecked = append(unchecked, item)
		}
	}

	section := fmt.Sprintf(`USER DATA - SHOPPING LIST:
The user has %d total item(s) in their shopping list.
- %d item(s) still need to be purchased (unchecked ☐)
- %d item(s) already obtained (checked off ☑)`, len(items), len(unchecked), len(checked))

	if len(unchecked) > 0 {
		lines := make([]string, 0, len(unchecked))
		for _, item := range unchecked {
			line := "☐ " + item.Name
			if item.Quantity != "" {
				line += " - Quantity: " + item.Quantity
			}
			if item.SourceRecipeName != "" {
				line += fmt.Sprintf(" (needed for recipe: '%s')", item.SourceRecipeName)
			}
			if item.PlannedDate != nil {
				line += fmt.Sprintf(" [planned for: %s]", item.PlannedDate.Format(mediumDate))
			}
			line += " [STATUS: NOT YET PURCHASED]"
			lines = append(lines, line)
		}
		section += "\n\nItems still needed (unchecked):\n" + strings.Join(lines, "\n")
	}

	if len(checked) > 0 {
		lines := make([]string, 0, len(checked))
		for _, item := range checked {
			line := "☑ " + item.Name
			if item.Quantity != "" {
				line += " - Quantity: " + item.Quantity
			}
			if item.SourceRecipeName != "" {
				line += fmt.Sprintf(" (was for recipe: '%s')", item.SourceRecipeName)
			}
			if item.PlannedDate != nil {
				line += fmt.Sprintf(" [was planned for: %s]", item.PlannedDate.Format(mediumDate))
			}
			line += " [STATUS: ALREADY PURCHASED/OBTAINED]"
			lines = append(lines, line)
		}
		section += "\n\nItems already obtained (checked off):\n" + strings.Join(lines, "\n")
	}

	return section
}

func mealPlanSection(entries []models.MealPlanEntry) string {
	counts := make(map[models.MealType]int)
	for _, entry := range entries {
		counts[entry.MealType]++
	}

	mealTypes := make([]string, 0, len(counts))
	for mealType := range counts {
		mealTypes = append(mealTypes, string(mealType))
	}
	sort.Strings(mealTypes)

	breakdown := make([]string, 0, len(mealTypes))
	for _, mealType := range mealTypes {
		breakdown = append(breakdown, fmt.Sprintf("%s: %d", capitalize(mealType), counts[models.MealType(mealType)]))
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("- %s: '%s' on %s",
			capitalize(string(entry.MealType)), entry.RecipeName, entry.Date.Format(fullDate)))
	}

	return fmt.Sprintf(`USER DATA - MEAL PLAN:
The user has %d meal(s) planned for the next 7 days.
Breakdown by meal type: %s

Scheduled meals:
%s`, len(entries), strings.Join(breakdown, ", "), strings.Join(lines, "\n"))
}

// favoriteCuisines returns up to three cuisines by descending count.
// Ties break by first encounter in the date-descending recipe order;
// callers rely on that ordering.
func favoriteCuisines(recipes []models.SavedRecipe) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for i, recipe := range recipes {
		if _, seen := counts[recipe.Cuisine]; !seen {
			firstSeen[recipe.Cuisine] = i
			order = append(order, recipe.Cuisine)
		}
		counts[recipe.Cuisine]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > 3 {
		order = order[:3]
	}
	return order
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
