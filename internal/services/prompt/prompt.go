// Package prompt composes system prompts, classifies user queries, and
// generates suggested-query and welcome-message text.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/recipescout/assistant/internal/models"
	"github.com/recipescout/assistant/internal/timectx"
)

const systemPromptHeader = `You are RecipeScout Assistant, a friendly and knowledgeable AI helper built into the RecipeScout app.

YOUR ROLE:
- Help users discover and understand recipes
- Provide cooking tips, techniques, and advice
- Answer questions about food, nutrition, and meal planning
- Assist with ingredient substitutions and dietary adaptations
- Help users make the most of their saved recipes, meal plans, and shopping lists

YOUR PERSONALITY:
- Friendly, encouraging, and enthusiastic about food
- Clear and concise in explanations
- Supportive of all skill levels from beginners to experts
- Culturally aware and respectful of different cuisines

GUIDELINES:
- Keep responses focused and helpful
- Use conversational language, not overly formal
- When suggesting recipes, consider what the user has saved
- If the user has items on their shopping list, you can reference them
- Provide practical, actionable advice
- If you don't know something, be honest about it
- Use emojis occasionally to be friendly (but don't overdo it)`

const systemPromptFooter = `Remember: You're here to make cooking and meal planning easier and more enjoyable!`

// BuildSystemPrompt interpolates the user context into the static
// persona block.
func BuildSystemPrompt(userContext string) string {
	return systemPromptHeader + "\n\n" + userContext + "\n\n" + systemPromptFooter
}

// QueryType categorizes a free-text query.
type QueryType string

const (
	QueryRecipeSearch           QueryType = "recipe_search"
	QueryCookingAdvice          QueryType = "cooking_advice"
	QueryNutritionQuestion      QueryType = "nutrition_question"
	QueryIngredientSubstitution QueryType = "ingredient_substitution"
	QueryMealPlanningHelp       QueryType = "meal_planning_help"
	QueryShoppingListHelp       QueryType = "shopping_list_help"
	QueryAppNavigation          QueryType = "app_navigation"
	QueryGeneral                QueryType = "general"
)

// queryKeywords pairs each category with its trigger phrases. Order
// matters: the first category with a match wins, so a query containing
// both "recipe for" and "calorie" classifies as recipe search.
var queryKeywords = []struct {
	queryType QueryType
	phrases   []string
}{
	{QueryRecipeSearch, []string{"recipe for", "how to make", "how do i cook", "find recipe"}},
	{QueryCookingAdvice, []string{"how to cook", "cooking technique", "what temperature", "how long"}},
	{QueryNutritionQuestion, []string{"calorie", "nutrition", "healthy", "protein", "vitamin"}},
	{QueryIngredientSubstitution, []string{"substitute", "instead of", "replace", "alternative to"}},
	{QueryMealPlanningHelp, []string{"meal plan", "what should i cook", "dinner idea", "lunch suggestion"}},
	{QueryShoppingListHelp, []string{"shopping list", "ingredients i need", "what to buy"}},
	{QueryAppNavigation, []string{"how do i", "where can i find", "how to use"}},
}

// ClassifyQuery assigns a query to the first matching category.
func ClassifyQuery(query string) QueryType {
	lowercased := strings.ToLower(query)

	for _, category := range queryKeywords {
		for _, phrase := range category.phrases {
			if strings.Contains(lowercased, phrase) {
				return category.queryType
			}
		}
	}

	return QueryGeneral
}

// Phrases that mark two suggestions as semantic duplicates when both
// contain one of them.
var dedupePhrases = []string{"saved recipes", "shopping list", "meal plan"}

var genericSuggestions = []string{
	"What's a good substitute for eggs?",
	"How do I store fresh herbs?",
	"What are some quick breakfast ideas?",
}

// SuggestedQueries merges time-based suggestions with data-availability
// ones. A source contributes only when it has data and its privacy flag
// is on. The result always contains at least one generic fallback and
// never exceeds four entries.
func SuggestedQueries(now time.Time, stats models.UserStatistics, flags models.PrivacyFlags) []string {
	recipesVisible := stats.SavedRecipeCount > 0 && flags.IncludeSavedRecipes
	itemsVisible := stats.ShoppingItemCount > 0 && flags.IncludeShoppingList
	mealsVisible := stats.UpcomingMealCount > 0 && flags.IncludeMealPlan

	candidates := timectx.Suggestions(now, recipesVisible, itemsVisible, mealsVisible)
	if recipesVisible {
		candidates = append(candidates, "What can I make with my saved recipes?")
		candidates = append(candidates, "Suggest a meal plan based on my favorites")
	}
	if itemsVisible {
		candidates = append(candidates, "What recipes use items from my shopping list?")
	}
	if mealsVisible {
		candidates = append(candidates, "Review my upcoming meal plan")
	}

	var suggestions []string
	for _, candidate := range candidates {
		if isDuplicate(suggestions, candidate) {
			continue
		}
		suggestions = append(suggestions, candidate)
	}

	// Keep room for at least one generic fallback.
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	for _, generic := range genericSuggestions {
		if len(suggestions) >= 4 {
			break
		}
		suggestions = append(suggestions, generic)
	}

	return suggestions
}

// isDuplicate reports whether the candidate shares a key phrase with an
// already-chosen suggestion.
func isDuplicate(chosen []string, candidate string) bool {
	candidateLower := strings.ToLower(candidate)
	for _, phrase := range dedupePhrases {
		if !strings.Contains(candidateLower, phrase) {
			continue
		}
		for _, existing := range chosen {
			if strings.Contains(strings.ToLower(existing), phrase) {
				return true
			}
		}
	}
	return false
}

const onboardingMessage = `👋 Hi! I'm your RecipeScout Assistant!

I'm here to help you with:
🍳 Recipe ideas and cooking tips
🥗 Meal planning advice
🛒 Shopping list suggestions
🔄 Ingredient substitutions
📚 Food and nutrition questions

Start exploring recipes in the app, and I'll be able to give you personalized suggestions based on what you save!

What can I help you with today?`

// WelcomeMessage synthesizes the first assistant message. It must be
// rebuilt whenever statistics or privacy flags change: a source counts
// as visible only when it has data and its flag is on.
func WelcomeMessage(now time.Time, stats models.UserStatistics, flags models.PrivacyFlags) string {
	recipesVisible := stats.SavedRecipeCount > 0 && flags.IncludeSavedRecipes
	itemsVisible := stats.ShoppingItemCount > 0 && flags.IncludeShoppingList
	mealsVisible := stats.UpcomingMealCount > 0 && flags.IncludeMealPlan

	if !recipesVisible && !itemsVisible && !mealsVisible {
		return onboardingMessage
	}

	message := fmt.Sprintf("👋 %s! I'm your RecipeScout Assistant. ", timectx.Greeting(now.Hour()))

	if recipesVisible {
		message += fmt.Sprintf("I see you have %d saved recipe%s. ",
			stats.SavedRecipeCount, plural(stats.SavedRecipeCount))
	}
	if itemsVisible {
		message += fmt.Sprintf("You have %d item%s on your shopping list. ",
			stats.ShoppingItemCount, plural(stats.ShoppingItemCount))
	}
	if mealsVisible {
		message += fmt.Sprintf("And %d meal%s planned! ",
			stats.UpcomingMealCount, plural(stats.UpcomingMealCount))
	}

	message += "\n\nI can help you with recipes, cooking tips, meal planning, and more. "
	if question := timectx.ClosingQuestion(now); question != "" {
		message += question
	} else {
		message += "What would you like to know?"
	}

	return message
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
