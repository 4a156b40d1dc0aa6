package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipescout/assistant/internal/middleware"
	"github.com/recipescout/assistant/internal/models"
	"github.com/recipescout/assistant/internal/services/ai"
	"github.com/recipescout/assistant/internal/services/usercontext"
)

// stubStore serves fixed data to the context manager.
type stubStore struct {
	recipes []models.SavedRecipe
	items   []models.ShoppingItem
	entries []models.MealPlanEntry
}

func (s *stubStore) ListSavedRecipes(ctx context.Context) ([]models.SavedRecipe, error) {
	return s.recipes, nil
}

func (s *stubStore) ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error) {
	return s.items, nil
}

func (s *stubStore) ListMealPlanEntries(ctx context.Context, start, end time.Time) ([]models.MealPlanEntry, error) {
	return s.entries, nil
}

func (s *stubStore) SaveRecipe(ctx context.Context, recipe models.SavedRecipe) error { return nil }
func (s *stubStore) DeleteRecipe(ctx context.Context, id string) error               { return nil }
func (s *stubStore) AddShoppingItem(ctx context.Context, item models.ShoppingItem) error {
	return nil
}
func (s *stubStore) SetItemChecked(ctx context.Context, id string, checked bool) error { return nil }
func (s *stubStore) AddMealPlanEntry(ctx context.Context, entry models.MealPlanEntry) error {
	return nil
}
func (s *stubStore) Clear(ctx context.Context) error { return nil }

// stubCompleter records calls and returns a canned response or error.
type stubCompleter struct {
	response *ai.CompletionResponse
	err      error

	calls        int
	lastMessages []ai.Message
	lastSystem   string
}

func (s *stubCompleter) Send(ctx context.Context, messages []ai.Message, systemPrompt string, temperature float64) (*ai.CompletionResponse, error) {
	s.calls++
	s.lastMessages = messages
	s.lastSystem = systemPrompt
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func textResponse(text string) *ai.CompletionResponse {
	return &ai.CompletionResponse{
		ID:      "msg_test",
		Content: []ai.ContentBlock{{Type: "text", Text: text}},
		Usage:   ai.Usage{InputTokens: 10, OutputTokens: 5},
	}
}

func newTestController(store *stubStore, completer *stubCompleter) *Controller {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	metrics := middleware.NewMetrics()
	contextMgr := usercontext.NewManager(store, logger, metrics)
	return NewController(context.Background(), completer, contextMgr,
		models.DefaultPrivacyFlags(), 0.7, logger, metrics)
}

func TestNewController_SeedsWelcomeMessage(t *testing.T) {
	c := newTestController(&stubStore{}, &stubCompleter{})

	messages := c.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleAssistant, messages[0].Role)
	assert.Contains(t, messages[0].Content, "I'm your RecipeScout Assistant")
	assert.False(t, c.IsLoading())
	assert.NoError(t, c.LastError())
}

func TestSendMessage_Success(t *testing.T) {
	completer := &stubCompleter{response: textResponse("Try a stir fry tonight.")}
	c := newTestController(&stubStore{}, completer)

	c.SendMessage(context.Background(), "What should I cook?")

	messages := c.Messages()
	require.Len(t, messages, 3) // welcome, user, assistant
	assert.Equal(t, models.RoleUser, messages[1].Role)
	assert.Equal(t, "What should I cook?", messages[1].Content)
	assert.Equal(t, models.RoleAssistant, messages[2].Role)
	assert.Equal(t, "Try a stir fry tonight.", messages[2].Content)
	assert.False(t, c.IsLoading())
	assert.NoError(t, c.LastError())

	// The full transcript including the welcome message goes on the
	// wire, ids dropped.
	require.Len(t, completer.lastMessages, 2)
	assert.Equal(t, "assistant", completer.lastMessages[0].Role)
	assert.Equal(t, "user", completer.lastMessages[1].Role)
	assert.Contains(t, completer.lastSystem, "You are RecipeScout Assistant")
	assert.Contains(t, completer.lastSystem, "DATA ACCESS PERMISSIONS:")
}

func TestSendMessage_EmptyInputIsNoOp(t *testing.T) {
	completer := &stubCompleter{response: textResponse("unused")}
	c := newTestController(&stubStore{}, completer)

	c.SendMessage(context.Background(), "")
	c.SendMessage(context.Background(), "   \n\t")

	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, 0, completer.calls)
}

func TestSendMessage_APIErrorBecomesAssistantMessage(t *testing.T) {
	completer := &stubCompleter{
		err: &ai.APIError{Kind: ai.ErrRateLimitExceeded, StatusCode: 429, RetryAfter: -1},
	}
	c := newTestController(&stubStore{}, completer)

	c.SendMessage(context.Background(), "Hello")

	messages := c.Messages()
	require.Len(t, messages, 3)
	last := messages[2]
	assert.Equal(t, models.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "❌ Sorry, I encountered an error:")
	assert.Contains(t, last.Content, "Wait a moment before sending another message")
	assert.Error(t, c.LastError())
	assert.False(t, c.IsLoading())
}

func TestSendMessage_UnknownErrorBecomesGenericMessage(t *testing.T) {
	completer := &stubCompleter{err: errors.New("boom")}
	c := newTestController(&stubStore{}, completer)

	c.SendMessage(context.Background(), "Hello")

	messages := c.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "❌ Sorry, something went wrong. Please try again.", messages[2].Content)
	assert.Error(t, c.LastError())
}

func TestSendMessage_ErrorClearedOnNextSuccess(t *testing.T) {
	completer := &stubCompleter{err: errors.New("boom")}
	c := newTestController(&stubStore{}, completer)

	c.SendMessage(context.Background(), "Hello")
	require.Error(t, c.LastError())

	completer.err = nil
	completer.response = textResponse("All good now.")
	c.SendMessage(context.Background(), "Again")

	assert.NoError(t, c.LastError())
}

func TestSendMessage_EmptyContentAppendsNothing(t *testing.T) {
	completer := &stubCompleter{response: &ai.CompletionResponse{Content: nil}}
	c := newTestController(&stubStore{}, completer)

	c.SendMessage(context.Background(), "Hello")

	messages := c.Messages()
	// Welcome and the user message only: no assistant reply, no error.
	require.Len(t, messages, 2)
	assert.NoError(t, c.LastError())
}

func TestSetSourceEnabled_DoesNotRewriteTranscript(t *testing.T) {
	store := &stubStore{
		recipes: []models.SavedRecipe{
			{Name: "Pad Thai", Cuisine: "Thai", DateSaved: time.Now()},
		},
	}
	completer := &stubCompleter{response: textResponse("Sure.")}
	c := newTestController(store, completer)

	c.SendMessage(context.Background(), "Hello")
	before := c.Messages()

	c.SetSourceEnabled(context.Background(), models.SourceSavedRecipes, false)

	after := c.Messages()
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i], after[i])
	}
	assert.False(t, c.Flags().IncludeSavedRecipes)

	// Future turns see the flipped flag.
	c.SendMessage(context.Background(), "And now?")
	assert.Contains(t, completer.lastSystem, "✗ You CANNOT see saved recipes")
}

func TestClearConversation(t *testing.T) {
	completer := &stubCompleter{response: textResponse("Reply.")}
	c := newTestController(&stubStore{}, completer)

	c.SendMessage(context.Background(), "One")
	c.SendMessage(context.Background(), "Two")
	require.Len(t, c.Messages(), 5)

	c.ClearConversation(context.Background())

	messages := c.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleAssistant, messages[0].Role)
	assert.NoError(t, c.LastError())
}

func TestRefreshStatistics_ReturnsPreviousSnapshot(t *testing.T) {
	store := &stubStore{}
	c := newTestController(store, &stubCompleter{})
	require.Equal(t, 0, c.Statistics().SavedRecipeCount)

	store.recipes = []models.SavedRecipe{
		{Name: "Pad Thai", Cuisine: "Thai", DateSaved: time.Now()},
	}

	previous := c.RefreshStatistics(context.Background())

	assert.Equal(t, 0, previous.SavedRecipeCount)
	assert.Equal(t, 1, c.Statistics().SavedRecipeCount)
}

func TestSuggestedQueries_NeverEmpty(t *testing.T) {
	c := newTestController(&stubStore{}, &stubCompleter{})

	suggestions := c.SuggestedQueries()

	assert.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), 4)
}

func TestDescribeStatisticsChange(t *testing.T) {
	old := models.UserStatistics{SavedRecipeCount: 2, ShoppingItemCount: 5, UpcomingMealCount: 1}

	t.Run("no change", func(t *testing.T) {
		assert.Equal(t, "", DescribeStatisticsChange(old, old))
	})

	t.Run("mixed changes", func(t *testing.T) {
		updated := models.UserStatistics{SavedRecipeCount: 4, ShoppingItemCount: 4, UpcomingMealCount: 1}
		assert.Equal(t,
			"Your data changed: 2 more saved recipes, 1 fewer shopping list item.",
			DescribeStatisticsChange(old, updated))
	})

	t.Run("singular noun", func(t *testing.T) {
		updated := models.UserStatistics{SavedRecipeCount: 3, ShoppingItemCount: 5, UpcomingMealCount: 1}
		assert.Equal(t,
			"Your data changed: 1 more saved recipe.",
			DescribeStatisticsChange(old, updated))
	})
}
