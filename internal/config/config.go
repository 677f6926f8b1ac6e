// Package config loads service configuration with Viper from an optional
// config.json and NUTRIMIND_ prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Unsplash  UnsplashConfig  `mapstructure:"unsplash"`
	Favorites FavoritesConfig `mapstructure:"favorites"`
	MealPlan  MealPlanConfig  `mapstructure:"mealplan"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	Development bool   `mapstructure:"development"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BackendConfig selects the recommender and locates the remote backend.
type BackendConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
}

// GeminiConfig configures the Gemini recommender.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// UnsplashConfig configures photo lookups.
type UnsplashConfig struct {
	AccessKey string        `mapstructure:"access_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// FavoritesConfig selects and configures the favorites storage backend.
type FavoritesConfig struct {
	Driver        string `mapstructure:"driver"`
	Dir           string `mapstructure:"dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	DatabaseURL   string `mapstructure:"database_url"`
}

// MealPlanConfig holds meal plan defaults.
type MealPlanConfig struct {
	DefaultDays int `mapstructure:"default_days"`
}

const (
	ProviderRemote = "remote"
	ProviderGemini = "gemini"

	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Load loads configuration from file and environment variables.
// configPath may be empty, in which case NUTRIMIND_CONFIG and then the default search paths are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath == "" {
		configPath = os.Getenv("NUTRIMIND_CONFIG")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("NUTRIMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.development", false)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"https://nutrimind.netlify.app",
	})

	v.SetDefault("backend.provider", ProviderRemote)
	v.SetDefault("backend.base_url", "http://localhost:8000")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	v.SetDefault("unsplash.access_key", "")
	v.SetDefault("unsplash.base_url", "https://api.unsplash.com")
	v.SetDefault("unsplash.timeout", "3s")

	v.SetDefault("favorites.driver", DriverFile)
	v.SetDefault("favorites.dir", "./data/favorites")
	v.SetDefault("favorites.redis_addr", "localhost:6379")
	v.SetDefault("favorites.redis_password", "")
	v.SetDefault("favorites.redis_db", 0)
	v.SetDefault("favorites.database_url", "")

	v.SetDefault("mealplan.default_days", 5)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Backend.Provider {
	case ProviderRemote:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required for the remote provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini.api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown backend.provider %q", c.Backend.Provider)
	}

	switch c.Favorites.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	case DriverPostgres:
		if c.Favorites.DatabaseURL == "" {
			return fmt.Errorf("favorites.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown favorites.driver %q", c.Favorites.Driver)
	}

	if c.MealPlan.DefaultDays < 1 {
		return fmt.Errorf("mealplan.default_days must be positive")
	}

	return nil
}
