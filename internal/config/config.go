// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Festival FestivalConfig
	Catalog  CatalogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	OverviewTTLSecond int
}

// ForecastConfig describes the external ML forecasting service.
type ForecastConfig struct {
	ServiceURL     string
	TimeoutSeconds int
}

// FestivalConfig describes the external public-holiday source and cache policy.
type FestivalConfig struct {
	CalendarBaseURL string
	CountryCode     string
	MaxAgeHours     int
}

type CatalogConfig struct {
	Path string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "stockcast")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_OVERVIEW_TTL_SECONDS", 60)
		viper.SetDefault("FORECAST_SERVICE_URL", "http://localhost:8000")
		viper.SetDefault("FORECAST_TIMEOUT_SECONDS", 15)
		viper.SetDefault("FESTIVAL_CALENDAR_BASE_URL", "https://date.nager.at")
		viper.SetDefault("FESTIVAL_COUNTRY_CODE", "US")
		viper.SetDefault("FESTIVAL_MAX_AGE_HOURS", 24)
		viper.SetDefault("CATALOG_PATH", "./config/products.yaml")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				OverviewTTLSecond: viper.GetInt("CACHE_OVERVIEW_TTL_SECONDS"),
			},
			Forecast: ForecastConfig{
				ServiceURL:     viper.GetString("FORECAST_SERVICE_URL"),
				TimeoutSeconds: viper.GetInt("FORECAST_TIMEOUT_SECONDS"),
			},
			Festival: FestivalConfig{
				CalendarBaseURL: viper.GetString("FESTIVAL_CALENDAR_BASE_URL"),
				CountryCode:     viper.GetString("FESTIVAL_COUNTRY_CODE"),
				MaxAgeHours:     viper.GetInt("FESTIVAL_MAX_AGE_HOURS"),
			},
			Catalog: CatalogConfig{
				Path: viper.GetString("CATALOG_PATH"),
			},
		}
	})

	return instance
}
