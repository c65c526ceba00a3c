package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/img2tg/img2tg/internal/consts"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	BotToken string // optional fallback credential for reads that omit apiKey

	// Document database defaults; requests may override per call
	MongoDefaultURI        string
	MongoDefaultCollection string
	MaxPoolSize            uint64
	MinPoolSize            uint64

	// Session cache
	SessionTimeout time.Duration

	// Upload pacing and retry behaviour
	UploadDelay time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	LogLevel string
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", consts.DefaultPort),
		BotToken:               os.Getenv("BOT_TOKEN"),
		MongoDefaultURI:        os.Getenv("MONGODB_URI"),
		MongoDefaultCollection: getEnvOrDefault("MONGODB_COLLECTION", consts.DefaultCollection),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.MaxPoolSize, err = getEnvUint("MAX_POOL_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.MinPoolSize, err = getEnvUint("MIN_POOL_SIZE", 2); err != nil {
		return nil, err
	}
	if cfg.SessionTimeout, err = getEnvMillis("SESSION_TIMEOUT_MS", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.UploadDelay, err = getEnvMillis("UPLOAD_DELAY_MS", time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getEnvMillis("RETRY_DELAY_MS", time.Second); err != nil {
		return nil, err
	}
	maxRetries, err := getEnvUint("MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	cfg.MaxRetries = int(maxRetries)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MS must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1")
	}
	if c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("MIN_POOL_SIZE cannot exceed MAX_POOL_SIZE")
	}
	return nil
}

// HasDefaultMongo reports whether requests may omit the database URI
func (c *Config) HasDefaultMongo() bool {
	return c.MongoDefaultURI != ""
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvMillis(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(parsed) * time.Millisecond, nil
}
