package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in a conversation transcript. Messages are
// immutable once created and are only ever appended in order.
type ChatMessage struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// NewChatMessage creates a message with a fresh id and timestamp.
func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// SavedRecipe is a recipe the user saved from search.
type SavedRecipe struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Cuisine   string    `json:"cuisine"`
	ImageURL  string    `json:"image_url,omitempty"`
	DateSaved time.Time `json:"date_saved"`
}

// ShoppingItem is one entry on the user's shopping list.
type ShoppingItem struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Quantity         string     `json:"quantity"`
	IsChecked        bool       `json:"is_checked"`
	SourceRecipeName string     `json:"source_recipe_name,omitempty"`
	PlannedDate      *time.Time `json:"planned_date,omitempty"`
	DateAdded        time.Time  `json:"date_added"`
}

// MealType is the slot a planned meal occupies.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// MealPlanEntry schedules a saved recipe for a date and meal slot.
type MealPlanEntry struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	MealType   MealType  `json:"meal_type"`
	RecipeID   string    `json:"recipe_id"`
	RecipeName string    `json:"recipe_name"`
}

// UserStatistics is a derived snapshot of the user's data, recomputed
// on demand. It is never the source of truth.
type UserStatistics struct {
	SavedRecipeCount  int
	ShoppingItemCount int
	UpcomingMealCount int
	FavoriteCuisines  []string
}

// HasAnyData reports whether any source has at least one entry.
func (s UserStatistics) HasAnyData() bool {
	return s.SavedRecipeCount > 0 || s.ShoppingItemCount > 0 || s.UpcomingMealCount > 0
}

// PrivacyFlags are the per-source switches controlling whether a data
// source may be described to the model. Toggling never rewrites past
// messages; it only affects future context builds.
type PrivacyFlags struct {
	IncludeSavedRecipes bool
	IncludeShoppingList bool
	IncludeMealPlan     bool
}

// DefaultPrivacyFlags enables every source.
func DefaultPrivacyFlags() PrivacyFlags {
	return PrivacyFlags{
		IncludeSavedRecipes: true,
		IncludeShoppingList: true,
		IncludeMealPlan:     true,
	}
}

// Source names one of the three user data sources.
type Source string

const (
	SourceSavedRecipes Source = "saved_recipes"
	SourceShoppingList Source = "shopping_list"
	SourceMealPlan     Source = "meal_plan"
)
