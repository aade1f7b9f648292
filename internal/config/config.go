package config

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime settings read from the environment.
type Config struct {
	AlpacaKeyID      string
	AlpacaSecretKey  string
	DataFeed         string
	MarketRatePerMin int

	StoreDriver string
	StateFile   string
	SQLitePath  string
	PostgresDSN string

	HTTPAddr            string
	RefreshIntervalMins int
	ConfirmationTTLSec  int
	MarketTimezone      string
	Location            *time.Location

	LogLevel      string
	MaxLogSizeMB  int64
	MaxLogBackups int

	TelegramBotToken string
	TelegramChatID   string
}

// secretVars are masked when the .env file is echoed.
var secretVars = map[string]bool{
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"TELEGRAM_BOT_TOKEN":  true,
	"POSTGRES_DSN":        true,
}

// Load reads .env (if any) and the environment. Invalid configuration is fatal.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}

	if envMap, err := godotenv.Read(); err == nil {
		log.Println("--- .env File Variables ---")
		keys := make([]string, 0, len(envMap))
		for k := range envMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			log.Printf("%s=%s", k, maskValue(k, envMap[k]))
		}
		log.Println("---------------------------")
	}
	return cfg
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AlpacaKeyID:         os.Getenv("APCA_API_KEY_ID"),
		AlpacaSecretKey:     os.Getenv("APCA_API_SECRET_KEY"),
		DataFeed:            getEnv("APCA_DATA_FEED", "iex"),
		MarketRatePerMin:    getEnvAsInt("MARKET_RATE_PER_MIN", 200),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", DriverFile)),
		StateFile:           getEnv("STATE_FILE", "user_state.json"),
		SQLitePath:          getEnv("SQLITE_PATH", "paper_trading.db"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		RefreshIntervalMins: getEnvAsInt("REFRESH_INTERVAL_MINS", 60),
		ConfirmationTTLSec:  getEnvAsInt("CONFIRMATION_TTL_SEC", 300),
		MarketTimezone:      getEnv("MARKET_TIMEZONE", "America/New_York"),
		LogLevel:            strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		MaxLogSizeMB:        getEnvAsInt64("MAX_LOG_SIZE_MB", 10),
		MaxLogBackups:       getEnvAsInt("MAX_LOG_BACKUPS", 3),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      os.Getenv("TELEGRAM_CHAT_ID"),
	}

	var missing []string
	if cfg.AlpacaKeyID == "" {
		missing = append(missing, "APCA_API_KEY_ID")
	}
	if cfg.AlpacaSecretKey == "" {
		missing = append(missing, "APCA_API_SECRET_KEY")
	}
	if cfg.StoreDriver == DriverPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "POSTGRES_DSN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	switch cfg.StoreDriver {
	case DriverFile, DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.RefreshIntervalMins <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL_MINS must be positive, got %d", cfg.RefreshIntervalMins)
	}

	loc, err := time.LoadLocation(cfg.MarketTimezone)
	if err != nil {
		return nil, fmt.Errorf("load MARKET_TIMEZONE %q: %w", cfg.MarketTimezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// TelegramEnabled reports whether the chat surface has credentials.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// RefreshInterval is the scheduled refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMins) * time.Minute
}

// ConfirmationTTL is how long a chat trade proposal stays executable.
func (c *Config) ConfirmationTTL() time.Duration {
	return time.Duration(c.ConfirmationTTLSec) * time.Second
}

// maskValue shows only the last 4 chars of secrets.
func maskValue(key, val string) string {
	if !secretVars[key] {
		return val
	}
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}
