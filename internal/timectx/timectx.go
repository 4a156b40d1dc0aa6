// Package timectx derives meal periods, day types, and time-aware
// suggestion text from a clock reading. Everything here is pure and
// deterministic given its inputs.
package timectx

import (
	"fmt"
	"time"
)

// MealPeriod is the meal bucket an hour of the day falls into.
type MealPeriod string

const (
	Breakfast MealPeriod = "Breakfast"
	Brunch    MealPeriod = "Brunch"
	Lunch     MealPeriod = "Lunch"
	Snack     MealPeriod = "Snack"
	Dinner    MealPeriod = "Dinner"
	LateNight MealPeriod = "Late Night Snack"
)

// DayType distinguishes weekdays from weekends.
type DayType string

const (
	Weekday DayType = "Weekday"
	Weekend DayType = "Weekend"
)

// MealPeriodFor maps an hour of the day to its meal period. Every hour
// 0-23 maps to exactly one period.
func MealPeriodFor(hour int) MealPeriod {
	switch {
	case hour >= 5 && hour < 10:
		return Breakfast
	case hour >= 10 && hour < 12:
		return Brunch
	case hour >= 12 && hour < 15:
		return Lunch
	case hour >= 15 && hour < 17:
		return Snack
	case hour >= 17 && hour < 21:
		return Dinner
	default:
		// 21-23 and 0-4
		return LateNight
	}
}

// NextMealPeriod suggests the meal a user would plan for next. The
// mapping is advisory text, not the literal successor of MealPeriodFor.
func NextMealPeriod(hour int) MealPeriod {
	switch {
	case hour >= 0 && hour < 5:
		return Breakfast
	case hour >= 5 && hour < 12:
		return Lunch
	case hour >= 12 && hour < 17:
		return Dinner
	default:
		// Evening onward points at tomorrow's breakfast.
		return Breakfast
	}
}

// DayTypeFor reports whether a weekday counts as weekend.
func DayTypeFor(weekday time.Weekday) DayType {
	if weekday == time.Saturday || weekday == time.Sunday {
		return Weekend
	}
	return Weekday
}

// Greeting returns a time-of-day salutation.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 17:
		return "Good afternoon"
	case hour >= 17 && hour < 22:
		return "Good evening"
	default:
		return "Hello"
	}
}

// ContextBlock renders the fixed-format time context injected into the
// system prompt.
func ContextBlock(now time.Time) string {
	hour := now.Hour()
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}

	currentMeal := MealPeriodFor(hour)
	nextMeal := NextMealPeriod(hour)
	dayType := DayTypeFor(now.Weekday())

	block := fmt.Sprintf(`CURRENT TIME CONTEXT:
- Current time: %02d:%02d (%s)
- Day: %s (%s)
- Current meal period: %s
- Next meal: %s`,
		hour, now.Minute(), meridiem,
		now.Weekday().String(), dayType,
		currentMeal, nextMeal)

	if hint := mealHint(currentMeal, dayType); hint != "" {
		block += "\n- " + hint
	}

	block += fmt.Sprintf("\n\nWhen suggesting recipes or meal ideas, prioritize options appropriate for %s.", currentMeal)

	return block
}

// mealHint returns the situational note for a (period, day type) pair.
// Pairs without a note get no hint line.
func mealHint(meal MealPeriod, day DayType) string {
	switch {
	case meal == Breakfast:
		return "Users typically want quick, energizing breakfast ideas now"
	case meal == Brunch && day == Weekend:
		return "Weekend brunch time - users may want more elaborate, leisurely recipes"
	case meal == Lunch && day == Weekday:
		return "Weekday lunch - users likely want quick, easy recipes"
	case meal == Lunch && day == Weekend:
		return "Weekend lunch - users have more time for cooking"
	case meal == Snack:
		return "Afternoon snack time - users want light, quick options"
	case meal == Dinner && day == Weekday:
		return "Weekday dinner - balance convenience with nutrition"
	case meal == Dinner && day == Weekend:
		return "Weekend dinner - users may want special or longer recipes"
	case meal == LateNight:
		return "Late night - suggest light, easy options if asked"
	}
	return ""
}

// Suggestions returns up to four time-appropriate query suggestions,
// deterministic given the clock and data availability.
func Suggestions(now time.Time, hasRecipes, hasShoppingList, hasMealPlan bool) []string {
	currentMeal := MealPeriodFor(now.Hour())
	dayType := DayTypeFor(now.Weekday())
	var suggestions []string

	switch currentMeal {
	case Breakfast:
		suggestions = append(suggestions, "What's a quick breakfast I can make?")
		suggestions = append(suggestions, "Suggest a healthy breakfast")
		if dayType == Weekend {
			suggestions = append(suggestions, "Give me a special weekend breakfast idea")
		}
	case Brunch:
		suggestions = append(suggestions, "What's a good brunch recipe?")
		if dayType == Weekend {
			suggestions = append(suggestions, "Suggest an impressive brunch dish")
		}
	case Lunch:
		if dayType == Weekday {
			suggestions = append(suggestions, "What's a quick lunch idea?")
			suggestions = append(suggestions, "Suggest a lunch I can make in 20 minutes")
		} else {
			suggestions = append(suggestions, "What should I make for lunch?")
			suggestions = append(suggestions, "Suggest a nice weekend lunch")
		}
	case Snack:
		suggestions = append(suggestions, "What's a healthy snack I can make?")
		suggestions = append(suggestions, "Suggest a quick afternoon pick-me-up")
	case Dinner:
		suggestions = append(suggestions, "What should I cook for dinner tonight?")
		if dayType == Weekday {
			suggestions = append(suggestions, "Give me an easy weeknight dinner idea")
		} else {
			suggestions = append(suggestions, "Suggest a special dinner recipe")
		}
		if hasMealPlan {
			suggestions = append(suggestions, "What's on my meal plan for tonight?")
		}
	case LateNight:
		suggestions = append(suggestions, "What's a light late-night snack?")
		suggestions = append(suggestions, "Suggest something easy to make now")
	}

	if hasRecipes {
		suggestions = append(suggestions, "What can I make from my saved recipes?")
	}
	if hasShoppingList {
		suggestions = append(suggestions, "What recipes use my shopping list items?")
	}

	if len(suggestions) > 4 {
		suggestions = suggestions[:4]
	}
	return suggestions
}

// ClosingQuestion returns the meal-period-specific question that ends
// a greeting or welcome message.
func ClosingQuestion(now time.Time) string {
	currentMeal := MealPeriodFor(now.Hour())
	dayType := DayTypeFor(now.Weekday())

	switch {
	case currentMeal == Breakfast:
		return "Ready to start your day with a great breakfast?"
	case currentMeal == Brunch && dayType == Weekend:
		return "Perfect time for a relaxing brunch!"
	case currentMeal == Lunch:
		return "What are you in the mood for lunch?"
	case currentMeal == Snack:
		return "Looking for an afternoon snack?"
	case currentMeal == Dinner:
		return "What would you like for dinner tonight?"
	case currentMeal == LateNight:
		return "Craving a late-night snack?"
	default:
		// Weekday brunch has no question.
		return ""
	}
}

// TimeAwareGreeting returns a greeting plus the meal-period closing
// question.
func TimeAwareGreeting(now time.Time) string {
	message := Greeting(now.Hour()) + "!"
	if question := ClosingQuestion(now); question != "" {
		message += " " + question
	}
	return message
}
