package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/recipescout/assistant/internal/config"
	"github.com/recipescout/assistant/internal/models"
)

// Redis hash keys, one per collection.
const (
	recipesKey = "recipescout:saved_recipes"
	itemsKey   = "recipescout:shopping_items"
	mealsKey   = "recipescout:meal_plan"
)

// RedisStore persists user data in redis, one hash per collection with
// JSON-encoded values keyed by entity id.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg *config.Config, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

func (r *RedisStore) ListSavedRecipes(ctx context.Context) ([]models.SavedRecipe, error) {
	values, err := r.client.HGetAll(ctx, recipesKey).Result()
	if err != nil {
		return nil, err
	}

	recipes := make([]models.SavedRecipe, 0, len(values))
	for id, data := range values {
		var recipe models.SavedRecipe
		if err := json.Unmarshal([]byte(data), &recipe); err != nil {
			r.logger.WithError(err).WithField("id", id).Warn("Skipping undecodable saved recipe")
			continue
		}
		recipes = append(recipes, recipe)
	}
	sortRecipes(recipes)
	return recipes, nil
}

func (r *RedisStore) ListShoppingItems(ctx context.Context) ([]models.ShoppingItem, error) {
	values, err := r.client.HGetAll(ctx, itemsKey).Result()
	if err != nil {
		return nil, err
	}

	items := make([]models.ShoppingItem, 0, len(values))
	for id, data := range values {
		var item models.ShoppingItem
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			r.logger.WithError(err).WithField("id", id).Warn("Skipping undecodable shopping item")
			continue
		}
		items = append(items, item)
	}
	sortItems(items)
	return items, nil
}

func (r *RedisStore) ListMealPlanEntries(ctx context.Context, start, end time.Time) ([]models.MealPlanEntry, error) {
	values, err := r.client.HGetAll(ctx, mealsKey).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.MealPlanEntry, 0, len(values))
	for id, data := range values {
		var entry models.MealPlanEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			r.logger.WithError(err).WithField("id", id).Warn("Skipping undecodable meal plan entry")
			continue
		}
		entries = append(entries, entry)
	}
	return filterEntries(entries, start, end), nil
}

func (r *RedisStore) SaveRecipe(ctx context.Context, recipe models.SavedRecipe) error {
	data, err := json.Marshal(recipe)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, recipesKey, recipe.ID, data).Err()
}

func (r *RedisStore) DeleteRecipe(ctx context.Context, id string) error {
	return r.client.HDel(ctx, recipesKey, id).Err()
}

func (r *RedisStore) AddShoppingItem(ctx context.Context, item models.ShoppingItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, itemsKey, item.ID, data).Err()
}

func (r *RedisStore) SetItemChecked(ctx context.Context, id string, checked bool) error {
	data, err := r.client.HGet(ctx, itemsKey, id).Result()
	if err == redis.Nil {
		return fmt.Errorf("shopping item not found: %s", id)
	}
	if err != nil {
		return err
	}

	var item models.ShoppingItem
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return err
	}
	item.IsChecked = checked

	updated, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, itemsKey, id, updated).Err()
}

func (r *RedisStore) AddMealPlanEntry(ctx context.Context, entry models.MealPlanEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, mealsKey, entry.ID, data).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, recipesKey, itemsKey, mealsKey).Err()
}
