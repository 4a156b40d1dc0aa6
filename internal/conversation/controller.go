// Package conversation orchestrates chat turns: it owns the transcript,
// the privacy flags, and the loading/error state of one session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recipescout/assistant/internal/middleware"
	"github.com/recipescout/assistant/internal/models"
	"github.com/recipescout/assistant/internal/services/ai"
	"github.com/recipescout/assistant/internal/services/prompt"
	"github.com/recipescout/assistant/internal/services/usercontext"
)

// Completer sends a message history to the completion endpoint.
type Completer interface {
	Send(ctx context.Context, messages []ai.Message, systemPrompt string, temperature float64) (*ai.CompletionResponse, error)
}

// Controller manages one conversation session. It is not safe for
// concurrent SendMessage calls: callers must wait for IsLoading to
// clear before issuing the next turn.
type Controller struct {
	client      Completer
	contextMgr  *usercontext.Manager
	logger      *logrus.Logger
	metrics     *middleware.Metrics
	temperature float64

	// now is swappable for tests.
	now func() time.Time

	messages []models.ChatMessage
	loading  bool
	lastErr  error
	flags    models.PrivacyFlags
	stats    models.UserStatistics
}

// NewController creates a session seeded with a welcome message.
func NewController(
	ctx context.Context,
	client Completer,
	contextMgr *usercontext.Manager,
	flags models.PrivacyFlags,
	temperature float64,
	logger *logrus.Logger,
	metrics *middleware.Metrics,
) *Controller {
	c := &Controller{
		client:      client,
		contextMgr:  contextMgr,
		logger:      logger,
		metrics:     metrics,
		temperature: temperature,
		now:         time.Now,
		flags:       flags,
	}
	c.stats = contextMgr.UserStatistics(ctx)
	c.addWelcomeMessage()
	return c
}

// SendMessage runs one turn. Empty or whitespace-only text is a no-op.
// Failures never propagate: they are converted into an assistant-role
// chat message and retained in LastError. The loading flag is always
// cleared when the attempt settles.
func (c *Controller) SendMessage(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	c.appendMessage(models.NewChatMessage(models.RoleUser, text))
	c.lastErr = nil
	c.loading = true
	defer func() {
		c.loading = false
	}()

	userContext := c.contextMgr.BuildContext(ctx, c.flags)
	systemPrompt := prompt.BuildSystemPrompt(userContext)

	// Project the transcript into wire format, dropping message ids.
	wireMessages := make([]ai.Message, len(c.messages))
	for i, message := range c.messages {
		wireMessages[i] = ai.Message{Role: string(message.Role), Content: message.Content}
	}

	response, err := c.client.Send(ctx, wireMessages, systemPrompt, c.temperature)
	if err != nil {
		c.lastErr = err

		var apiErr *ai.APIError
		if errors.As(err, &apiErr) {
			c.logger.WithError(err).WithField("kind", apiErr.Kind.String()).Error("Completion request failed")
			c.appendMessage(models.NewChatMessage(models.RoleAssistant,
				fmt.Sprintf("❌ Sorry, I encountered an error: %s\n\n%s", apiErr.Error(), apiErr.RecoverySuggestion())))
		} else {
			c.logger.WithError(err).Error("Conversation turn failed")
			c.appendMessage(models.NewChatMessage(models.RoleAssistant,
				"❌ Sorry, something went wrong. Please try again."))
		}
		c.metrics.RecordConversationTurn("error")
		return
	}

	// Only the first content block is consumed. A response with no
	// blocks appends nothing.
	if len(response.Content) > 0 {
		c.appendMessage(models.NewChatMessage(models.RoleAssistant, response.Content[0].Text))
	}
	c.metrics.RecordConversationTurn("success")
}

// RefreshStatistics recomputes the statistics snapshot and returns the
// previous one so callers can diff.
func (c *Controller) RefreshStatistics(ctx context.Context) models.UserStatistics {
	previous := c.stats
	c.stats = c.contextMgr.UserStatistics(ctx)
	return previous
}

// ClearConversation hard-resets the session: the prior transcript is
// discarded, statistics recomputed, and a fresh welcome message seeded.
func (c *Controller) ClearConversation(ctx context.Context) {
	c.messages = nil
	c.lastErr = nil
	c.stats = c.contextMgr.UserStatistics(ctx)
	c.addWelcomeMessage()
}

// SetSourceEnabled toggles one privacy flag and refreshes statistics.
// Already-appended messages are never rewritten: the toggle affects
// future context builds only.
func (c *Controller) SetSourceEnabled(ctx context.Context, source models.Source, enabled bool) {
	switch source {
	case models.SourceSavedRecipes:
		c.flags.IncludeSavedRecipes = enabled
	case models.SourceShoppingList:
		c.flags.IncludeShoppingList = enabled
	case models.SourceMealPlan:
		c.flags.IncludeMealPlan = enabled
	}
	c.stats = c.contextMgr.UserStatistics(ctx)
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []models.ChatMessage {
	messages := make([]models.ChatMessage, len(c.messages))
	copy(messages, c.messages)
	return messages
}

// IsLoading reports whether a turn is in flight. Callers are expected
// to honor it before calling SendMessage again.
func (c *Controller) IsLoading() bool {
	return c.loading
}

// LastError returns the most recent turn failure, nil after a
// successful turn or a clear.
func (c *Controller) LastError() error {
	return c.lastErr
}

// Statistics returns the current snapshot.
func (c *Controller) Statistics() models.UserStatistics {
	return c.stats
}

// Flags returns the current privacy flags.
func (c *Controller) Flags() models.PrivacyFlags {
	return c.flags
}

// SuggestedQueries returns query suggestions for the current state.
func (c *Controller) SuggestedQueries() []string {
	return prompt.SuggestedQueries(c.now(), c.stats, c.flags)
}

func (c *Controller) addWelcomeMessage() {
	welcome := prompt.WelcomeMessage(c.now(), c.stats, c.flags)
	c.appendMessage(models.NewChatMessage(models.RoleAssistant, welcome))
}

func (c *Controller) appendMessage(message models.ChatMessage) {
	c.messages = append(c.messages, message)
	c.metrics.RecordConversationMessage(string(message.Role))
}

// DescribeStatisticsChange synthesizes a human sentence describing how
// the counters moved between two snapshots. Empty when nothing changed.
func DescribeStatisticsChange(old, updated models.UserStatistics) string {
	var changes []string
	if change := describeCounter(old.SavedRecipeCount, updated.SavedRecipeCount, "saved recipe"); change != "" {
		changes = append(changes, change)
	}
	if change := describeCounter(old.ShoppingItemCount, updated.ShoppingItemCount, "shopping list item"); change != "" {
		changes = append(changes, change)
	}
	if change := describeCounter(old.UpcomingMealCount, updated.UpcomingMealCount, "planned meal"); change != "" {
		changes = append(changes, change)
	}

	if len(changes) == 0 {
		return ""
	}
	return "Your data changed: " + strings.Join(changes, ", ") + "."
}

func describeCounter(old, updated int, noun string) string {
	switch {
	case updated > old:
		return fmt.Sprintf("%d more %s", updated-old, pluralize(noun, updated-old))
	case updated < old:
		return fmt.Sprintf("%d fewer %s", old-updated, pluralize(noun, old-updated))
	default:
		return ""
	}
}

func pluralize(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
