package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/recipescout/assistant/internal/config"
	"github.com/recipescout/assistant/internal/conversation"
	"github.com/recipescout/assistant/internal/i18n"
	"github.com/recipescout/assistant/internal/middleware"
	"github.com/recipescout/assistant/internal/models"
	"github.com/recipescout/assistant/internal/services/ai"
	"github.com/recipescout/assistant/internal/services/storage"
	"github.com/recipescout/assistant/internal/services/usercontext"
	"github.com/recipescout/assistant/internal/timectx"
	"github.com/recipescout/assistant/pkg/logger"
	"github.com/recipescout/assistant/pkg/markdown"
)

var (
	assistantLabel = color.New(color.FgGreen, color.Bold)
	userLabel      = color.New(color.FgBlue, color.Bold)
	noticeStyle    = color.New(color.FgYellow)
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	demo := flag.Bool("demo", false, "Seed the store with sample data")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting RecipeScout Assistant...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	storageManager, err := storage.NewManager(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	if *demo {
		if err := seedDemoData(ctx, storageManager); err != nil {
			log.WithError(err).Error("Failed to seed demo data")
		} else {
			log.Info("Demo data seeded")
		}
	}

	// Initialize i18n
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}
	lang := cfg.I18n.DefaultLanguage

	// Initialize metrics
	metrics := middleware.NewMetrics()

	// Start metrics server if enabled
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Initialize the completion client and conversation session
	client := ai.NewClient(&cfg.AI, cfg.AI.Key, log, metrics)
	contextMgr := usercontext.NewManager(storageManager, log, metrics)

	flags := models.PrivacyFlags{
		IncludeSavedRecipes: cfg.Privacy.IncludeSavedRecipes,
		IncludeShoppingList: cfg.Privacy.IncludeShoppingList,
		IncludeMealPlan:     cfg.Privacy.IncludeMealPlan,
	}
	controller := conversation.NewController(ctx, client, contextMgr, flags, cfg.AI.Temperature, log, metrics)

	sessionLog := logger.WithSession(log, uuid.NewString())
	sessionLog.Info("Conversation session started")

	// Stop the REPL on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
		fmt.Println()
		fmt.Println(localizer.Get(lang, i18n.MsgGoodbye, nil))
		os.Exit(0)
	}()

	fmt.Println(localizer.Get(lang, i18n.MsgBanner, nil))
	if !client.IsConfigured() {
		noticeStyle.Println(localizer.Get(lang, i18n.MsgMissingAPIKeyNotice, nil))
	}

	// Print the seeded welcome message
	printAssistantMessage(controller.Messages()[0].Content)
	printSuggestions(localizer, lang, controller.SuggestedQueries())

	runREPL(ctx, controller, localizer, lang, sessionLog)

	fmt.Println(localizer.Get(lang, i18n.MsgGoodbye, nil))
}

func runREPL(ctx context.Context, controller *conversation.Controller, localizer *i18n.Localizer, lang string, log *logrus.Entry) {
	scanner := bufio.NewScanner(os.Stdin)
	lastMealPeriod := timectx.MealPeriodFor(time.Now().Hour())

	for {
		// Announce meal period rollovers between turns
		if current := timectx.MealPeriodFor(time.Now().Hour()); current != lastMealPeriod {
			lastMealPeriod = current
			noticeStyle.Println(localizer.Get(lang, i18n.MsgMealPeriodChanged,
				map[string]interface{}{"Period": strings.ToLower(string(current))}))
			printSuggestions(localizer, lang, controller.SuggestedQueries())
		}

		userLabel.Print("you> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, controller, localizer, lang, line); quit {
				return
			}
			continue
		}

		fmt.Println(localizer.Get(lang, i18n.MsgThinking, nil))
		controller.SendMessage(ctx, line)

		messages := controller.Messages()
		last := messages[len(messages)-1]
		if last.Role == models.RoleAssistant {
			printAssistantMessage(last.Content)
		}
		if err := controller.LastError(); err != nil {
			log.WithError(err).Warn("Turn ended with error")
		}
	}
}

// handleCommand dispatches slash commands, returning true on /quit.
func handleCommand(ctx context.Context, controller *conversation.Controller, localizer *i18n.Localizer, lang, line string) bool {
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(localizer.Get(lang, i18n.MsgHelp, nil))

	case "/clear":
		controller.ClearConversation(ctx)
		fmt.Println(localizer.Get(lang, i18n.MsgContextCleared, nil))
		printAssistantMessage(controller.Messages()[0].Content)

	case "/stats":
		old := controller.RefreshStatistics(ctx)
		stats := controller.Statistics()
		fmt.Println(localizer.Get(lang, i18n.MsgStats, map[string]interface{}{
			"Recipes":  stats.SavedRecipeCount,
			"Items":    stats.ShoppingItemCount,
			"Meals":    stats.UpcomingMealCount,
			"Cuisines": strings.Join(stats.FavoriteCuisines, ", "),
		}))
		if change := conversation.DescribeStatisticsChange(old, stats); change != "" {
			noticeStyle.Println(change)
		}

	case "/suggest":
		printSuggestions(localizer, lang, controller.SuggestedQueries())

	case "/privacy":
		if len(fields) != 3 {
			fmt.Println(localizer.Get(lang, i18n.MsgPrivacyUsage, nil))
			break
		}
		source, ok := parseSource(fields[1])
		if !ok {
			fmt.Println(localizer.Get(lang, i18n.MsgPrivacyUsage, nil))
			break
		}
		controller.SetSourceEnabled(ctx, source, fields[2] == "on")
		fmt.Println(localizer.Get(lang, i18n.MsgPrivacyUpdated, map[string]interface{}{
			"Source": fields[1],
			"State":  fields[2],
		}))

	default:
		fmt.Println(localizer.Get(lang, i18n.MsgUnknownCommand, nil))
	}

	return false
}

func parseSource(name string) (models.Source, bool) {
	switch name {
	case "recipes":
		return models.SourceSavedRecipes, true
	case "shopping":
		return models.SourceShoppingList, true
	case "meals":
		return models.SourceMealPlan, true
	}
	return "", false
}

func printAssistantMessage(content string) {
	assistantLabel.Print("assistant> ")
	fmt.Println(markdown.ToTerminal(content))
	fmt.Println()
}

func printSuggestions(localizer *i18n.Localizer, lang string, suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Println(localizer.Get(lang, i18n.MsgSuggestionsHeader, nil))
	for _, suggestion := range suggestions {
		fmt.Println("  • " + suggestion)
	}
	fmt.Println()
}

// seedDemoData populates the store with a small sample dataset so the
// assistant has something to talk about.
func seedDemoData(ctx context.Context, store storage.Store) error {
	now := time.Now()

	recipes := []models.SavedRecipe{
		{ID: uuid.NewString(), Name: "Pad Thai", Category: "Noodles", Cuisine: "Thai", DateSaved: now.Add(-1 * time.Hour)},
		{ID: uuid.NewString(), Name: "Green Curry", Category: "Curry", Cuisine: "Thai", DateSaved: now.Add(-26 * time.Hour)},
		{ID: uuid.NewString(), Name: "Margherita Pizza", Category: "Pizza", Cuisine: "Italian", DateSaved: now.Add(-48 * time.Hour)},
		{ID: uuid.NewString(), Name: "Chicken Tacos", Category: "Tacos", Cuisine: "Mexican", DateSaved: now.Add(-72 * time.Hour)},
	}
	for _, recipe := range recipes {
		if err := store.SaveRecipe(ctx, recipe); err != nil {
			return err
		}
	}

	tonight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	items := []models.ShoppingItem{
		{ID: uuid.NewString(), Name: "Rice noodles", Quantity: "400g", SourceRecipeName: "Pad Thai", DateAdded: now.Add(-30 * time.Minute)},
		{ID: uuid.NewString(), Name: "Coconut milk", Quantity: "2 cans", SourceRecipeName: "Green Curry", PlannedDate: &tonight, DateAdded: now.Add(-2 * time.Hour)},
		{ID: uuid.NewString(), Name: "Fresh basil", Quantity: "1 bunch", IsChecked: true, DateAdded: now.Add(-3 * time.Hour)},
	}
	for _, item := range items {
		if err := store.AddShoppingItem(ctx, item); err != nil {
			return err
		}
	}

	entries := []models.MealPlanEntry{
		{ID: uuid.NewString(), Date: tonight, MealType: models.MealTypeDinner, RecipeID: recipes[0].ID, RecipeName: "Pad Thai"},
		{ID: uuid.NewString(), Date: tonight.AddDate(0, 0, 1), MealType: models.MealTypeDinner, RecipeID: recipes[1].ID, RecipeName: "Green Curry"},
		{ID: uuid.NewString(), Date: tonight.AddDate(0, 0, 2), MealType: models.MealTypeLunch, RecipeID: recipes[2].ID, RecipeName: "Margherita Pizza"},
	}
	for _, entry := range entries {
		if err := store.AddMealPlanEntry(ctx, entry); err != nil {
			return err
		}
	}

	return nil
}
