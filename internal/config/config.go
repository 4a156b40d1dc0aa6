package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AI         AIConfig         `mapstructure:"ai"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Privacy    PrivacyConfig    `mapstructure:"privacy"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

// AIConfig configures the completion endpoint client.
type AIConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	APIKey             string        `mapstructure:"api_key"`
	APIVersion         string        `mapstructure:"api_version"`
	Model              string        `mapstructure:"model"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	Temperature        float64       `mapstructure:"temperature"`
	MinRequestInterval time.Duration `mapstructure:"min_request_interval"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// Key returns the configured API key, empty when unset. Passed to the
// completion client as its key provider.
func (c *AIConfig) Key() string {
	return c.APIKey
}

type StorageConfig struct {
	Type   string       `mapstructure:"type"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Memory MemoryConfig `mapstructure:"memory"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MemoryConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// PrivacyConfig sets the initial per-source inclusion switches. The
// conversation controller owns them afterwards.
type PrivacyConfig struct {
	IncludeSavedRecipes bool `mapstructure:"include_saved_recipes"`
	IncludeShoppingList bool `mapstructure:"include_shopping_list"`
	IncludeMealPlan     bool `mapstructure:"include_meal_plan"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variable overrides
	viper.BindEnv("ai.api_key", "ANTHROPIC_API_KEY")
	viper.BindEnv("ai.base_url", "API_BASE_URL")
	viper.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("storage.redis.db", "REDIS_DB")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Handle Redis address special case
	if redisHost := viper.GetString("REDIS_HOST"); redisHost != "" {
		redisPort := viper.GetString("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}
		config.Storage.Redis.Addr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("ai.base_url", "https://api.anthropic.com")
	viper.SetDefault("ai.api_version", "2023-06-01")
	viper.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("ai.max_tokens", 4096)
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.min_request_interval", 500*time.Millisecond)
	viper.SetDefault("ai.request_timeout", 60*time.Second)
	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.cleanup_interval", 10*time.Minute)
	viper.SetDefault("privacy.include_saved_recipes", true)
	viper.SetDefault("privacy.include_shopping_list", true)
	viper.SetDefault("privacy.include_meal_plan", true)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("i18n.default_language", "en")
	viper.SetDefault("i18n.languages", []string{"en"})
}

func validateConfig(cfg *Config) error {
	if cfg.AI.BaseURL == "" {
		return fmt.Errorf("ai base_url is required")
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai model is required")
	}
	if cfg.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai max_tokens must be positive")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 1 {
		return fmt.Errorf("ai temperature must be in [0,1]")
	}
	if cfg.Storage.Type == "redis" && cfg.Storage.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required for redis storage")
	}
	return nil
}
