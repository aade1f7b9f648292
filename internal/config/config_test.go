package config

import (
	"os"
	"strings"
	"testing"
)

var optionals = []string{
	"APCA_DATA_FEED",
	"MARKET_RATE_PER_MIN",
	"STORE_DRIVER",
	"STATE_FILE",
	"SQLITE_PATH",
	"POSTGRES_DSN",
	"HTTP_ADDR",
	"REFRESH_INTERVAL_MINS",
	"CONFIRMATION_TTL_SEC",
	"MARKET_TIMEZONE",
	"LOG_LEVEL",
	"MAX_LOG_SIZE_MB",
	"MAX_LOG_BACKUPS",
	"TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID",
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APCA_API_KEY_ID", "test_key")
	t.Setenv("APCA_API_SECRET_KEY", "test_secret")
	for _, k := range optionals {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.LogLevel != "INFO" {
		t.Errorf("Expected LogLevel 'INFO', got '%s'", cfg.LogLevel)
	}
	if cfg.RefreshIntervalMins != 60 {
		t.Errorf("Expected RefreshIntervalMins 60, got %d", cfg.RefreshIntervalMins)
	}
	if cfg.ConfirmationTTLSec != 300 {
		t.Errorf("Expected ConfirmationTTLSec 300, got %d", cfg.ConfirmationTTLSec)
	}
	if cfg.StoreDriver != DriverFile {
		t.Errorf("Expected StoreDriver 'file', got '%s'", cfg.StoreDriver)
	}
	if cfg.StateFile != "user_state.json" {
		t.Errorf("Expected StateFile 'user_state.json', got '%s'", cfg.StateFile)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr ':8080', got '%s'", cfg.HTTPAddr)
	}
	if cfg.MarketRatePerMin != 200 {
		t.Errorf("Expected MarketRatePerMin 200, got %d", cfg.MarketRatePerMin)
	}
	if cfg.DataFeed != "iex" {
		t.Errorf("Expected DataFeed 'iex', got '%s'", cfg.DataFeed)
	}
	if cfg.MaxLogSizeMB != 10 || cfg.MaxLogBackups != 3 {
		t.Errorf("Expected log rotation 10MB/3, got %dMB/%d", cfg.MaxLogSizeMB, cfg.MaxLogBackups)
	}
	if cfg.Location == nil || cfg.Location.String() != "America/New_York" {
		t.Errorf("Expected America/New_York location, got %v", cfg.Location)
	}
	if cfg.TelegramEnabled() {
		t.Error("Expected Telegram to be disabled without credentials")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("REFRESH_INTERVAL_MINS", "15")
	t.Setenv("CONFIRMATION_TTL_SEC", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("Expected StoreDriver 'sqlite', got '%s'", cfg.StoreDriver)
	}
	if cfg.RefreshInterval().Minutes() != 15 {
		t.Errorf("Expected 15m refresh, got %v", cfg.RefreshInterval())
	}
	if cfg.ConfirmationTTLSec != 300 {
		t.Errorf("Expected invalid TTL to fall back to 300, got %d", cfg.ConfirmationTTLSec)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("Expected LogLevel 'DEBUG', got '%s'", cfg.LogLevel)
	}
	if !cfg.TelegramEnabled() {
		t.Error("Expected Telegram to be enabled")
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	setRequired(t)
	os.Unsetenv("APCA_API_SECRET_KEY")

	_, err := FromEnv()
	if err == nil || !strings.Contains(err.Error(), "APCA_API_SECRET_KEY") {
		t.Fatalf("Expected missing secret key error, got %v", err)
	}
}

func TestLoadConfig_PostgresNeedsDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "postgres")

	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Fatalf("Expected POSTGRES_DSN error, got %v", err)
	}

	t.Setenv("POSTGRES_DSN", "postgres://localhost/paper?sslmode=disable")
	if _, err := FromEnv(); err != nil {
		t.Fatalf("Expected valid postgres config, got %v", err)
	}
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "mongo")

	if _, err := FromEnv(); err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}

func TestMaskValue(t *testing.T) {
	if got := maskValue("APCA_API_SECRET_KEY", "abcdef123456"); got != "***3456" {
		t.Errorf("Expected masked secret, got %s", got)
	}
	if got := maskValue("TELEGRAM_BOT_TOKEN", "abc"); got != "***" {
		t.Errorf("Expected fully masked short secret, got %s", got)
	}
	if got := maskValue("HTTP_ADDR", ":9000"); got != ":9000" {
		t.Errorf("Expected plain value, got %s", got)
	}
}
