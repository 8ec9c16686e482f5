package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port string

	TelegramToken        string
	TelegramExportChatID int64

	SpreadsheetID      string
	ServiceAccountFile string

	StoreDriver string
	StorePath   string

	PostgresDSN          string
	PostgresAdminDSN     string
	PostgresConnectTries int
	PostgresConnectDelay time.Duration

	ExportDir    string
	BrandName    string
	DefaultCity  string
	UserID       string
	UserName     string
	Location     *time.Location
	TimezoneName string

	ProbeURL      string
	ProbeInterval time.Duration

	AllowedOrigins    []string
	AllowEmptySecrets bool
}

// SheetsEnabled reports whether the remote spreadsheet is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.ServiceAccountFile != ""
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnv("PORT", constants.DefaultPort),
		TelegramToken:      strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		SpreadsheetID:      strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_ID")),
		ServiceAccountFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", "file")),
		StorePath:          getEnv("STORE_PATH", "data/inventory.json"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PostgresAdminDSN:   strings.TrimSpace(os.Getenv("POSTGRES_ADMIN_DSN")),
		ExportDir:          getEnv("EXPORT_DIR", "exports"),
		BrandName:          getEnv("BRAND_NAME", constants.DefaultBrand),
		DefaultCity:        getEnv("DEFAULT_CITY", constants.DefaultCity),
		UserID:             getEnv("FIXED_USER_ID", constants.DefaultUserID),
		UserName:           getEnv("FIXED_USER_NAME", constants.DefaultUserName),
		TimezoneName:       getEnv("TIMEZONE", constants.DefaultTimezone),
		ProbeURL:           strings.TrimSpace(os.Getenv("CONNECTIVITY_PROBE_URL")),
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
		AllowEmptySecrets:  getEnvBool("ALLOW_EMPTY_SECRETS", false),
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_EXPORT_CHAT_ID")); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_EXPORT_CHAT_ID is not a number: %v", err)
		}
		config.TelegramExportChatID = chatID
	}

	interval, err := getEnvDuration("CONNECTIVITY_PROBE_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	config.ProbeInterval = interval

	tries, err := getEnvInt("POSTGRES_CONNECT_MAX_ATTEMPTS", 20)
	if err != nil {
		return nil, err
	}
	config.PostgresConnectTries = tries

	retryDelay, err := getEnvDuration("POSTGRES_CONNECT_RETRY_SECONDS", 2*time.Second)
	if err != nil {
		return nil, err
	}
	config.PostgresConnectDelay = retryDelay

	loc, err := time.LoadLocation(config.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %v", config.TimezoneName, err)
	}
	config.Location = loc

	switch config.StoreDriver {
	case "memory", "file", "json", "sqlite", "postgres", "postgresql":
	default:
		return nil, fmt.Errorf("STORE_DRIVER %q is not supported", config.StoreDriver)
	}
	if (config.StoreDriver == "postgres" || config.StoreDriver == "postgresql") && config.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required for STORE_DRIVER=%s", config.StoreDriver)
	}

	if !config.AllowEmptySecrets {
		if config.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is empty")
		}
		if config.SpreadsheetID != "" && config.ServiceAccountFile == "" {
			return nil, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is required when GOOGLE_SHEETS_ID is set")
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive", key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
