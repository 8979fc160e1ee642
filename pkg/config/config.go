package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// EbayConfig holds credentials and endpoints for the primary (free) source.
// Absence of credentials degrades primary-source features to empty results.
type EbayConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	SearchURL    string
	Marketplace  string
	Scope        string
	// TokenTTL is how long a fetched token is served from cache. Kept
	// shorter than the vendor's stated validity so a cached token never
	// expires mid-call.
	TokenTTL time.Duration
	Timeout  time.Duration
}

// SerpConfig holds the key for the metered source. An empty key means the
// metered adapters are disabled, not broken.
type SerpConfig struct {
	APIKey    string
	SearchURL string
	Timeout   time.Duration
}

// SchedulerConfig holds the alert sweep schedule
type SchedulerConfig struct {
	AlertCheckSpec string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	Ebay        EbayConfig
	Serp        SerpConfig
	Scheduler   SchedulerConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "price_comparison"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Ebay: EbayConfig{
			ClientID:     getEnv("EBAY_CLIENT_ID", ""),
			ClientSecret: getEnv("EBAY_CLIENT_SECRET", ""),
			TokenURL:     getEnv("EBAY_TOKEN_URL", "https://api.ebay.com/identity/v1/oauth2/token"),
			SearchURL:    getEnv("EBAY_SEARCH_URL", "https://api.ebay.com/buy/browse/v1/item_summary/search"),
			Marketplace:  getEnv("EBAY_MARKETPLACE", "EBAY_US"),
			Scope:        getEnv("EBAY_SCOPE", "https://api.ebay.com/oauth/api_scope"),
			TokenTTL:     getEnvAsDuration("EBAY_TOKEN_TTL", 1*time.Hour),
			Timeout:      getEnvAsDuration("EBAY_TIMEOUT", 15*time.Second),
		},
		Serp: SerpConfig{
			APIKey:    getEnv("SERPAPI_KEY", ""),
			SearchURL: getEnv("SERPAPI_SEARCH_URL", "https://serpapi.com/search.json"),
			Timeout:   getEnvAsDuration("SERPAPI_TIMEOUT", 20*time.Second),
		},
		Scheduler: SchedulerConfig{
			AlertCheckSpec: getEnv("ALERT_CHECK_SPEC", "@every 10m"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("ebay_configured", c.Ebay.ClientID != ""),
		zap.Bool("serpapi_configured", c.Serp.APIKey != ""),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
