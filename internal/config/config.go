package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	AppName     string
	Port        string
	LogLevel    slog.Level
	LogFile     string

	SQLitePath     string
	MigrationsPath string

	CatalogAPIURL   string
	CatalogUser     string
	CatalogCacheTTL time.Duration
	AdultRule       string

	RefreshEnabled  bool
	RefreshInterval time.Duration

	FetchTimeout       time.Duration
	FetchRatePerHost   float64
	ResolveTimeout     time.Duration
	ResolveConcurrency int
	SitesConfigPath    string

	ChatAPIKey  string
	ChatBaseURL string
	ChatModel   string

	WebhookURL     string
	NotifyStatuses []string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		AppName:            getEnv("APP_NAME", "manga-link-finder"),
		Port:               getEnv("APP_PORT", "5001"),
		LogFile:            strings.TrimSpace(os.Getenv("LOG_FILE")),
		SQLitePath:         getEnv("SQLITE_PATH", "./data/app.sqlite"),
		MigrationsPath:     strings.TrimSpace(os.Getenv("MIGRATIONS_PATH")),
		CatalogAPIURL:      getEnv("ANILIST_API_URL", "https://graphql.anilist.co"),
		CatalogUser:        strings.TrimSpace(os.Getenv("ANILIST_USER")),
		CatalogCacheTTL:    time.Duration(getEnvAsInt("CATALOG_CACHE_MINUTES", 10)) * time.Minute,
		AdultRule:          getEnv("ADULT_RULE", "flag"),
		RefreshEnabled:     getEnvAsBool("REFRESH_ENABLED", false),
		RefreshInterval:    time.Duration(getEnvAsInt("REFRESH_MINUTES", 60)) * time.Minute,
		FetchTimeout:       time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		FetchRatePerHost:   getEnvAsFloat("FETCH_RATE_PER_HOST", 2),
		ResolveTimeout:     time.Duration(getEnvAsInt("RESOLVE_TIMEOUT_SECONDS", 45)) * time.Second,
		ResolveConcurrency: getEnvAsInt("RESOLVE_CONCURRENCY", 4),
		SitesConfigPath:    strings.TrimSpace(os.Getenv("SITES_CONFIG_PATH")),
		ChatAPIKey:         strings.TrimSpace(os.Getenv("CHAT_API_KEY")),
		ChatBaseURL:        getEnv("CHAT_BASE_URL", "https://api.deepseek.com/v1"),
		ChatModel:          getEnv("CHAT_MODEL", "deepseek-chat"),
		WebhookURL:         strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		NotifyStatuses:     getEnvAsList("NOTIFY_STATUSES"),
	}

	// an unbounded fetch would stall the whole resolution pipeline
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 45 * time.Second
	}
	if cfg.ResolveConcurrency <= 0 {
		cfg.ResolveConcurrency = 4
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 60 * time.Minute
	}
	if cfg.CatalogCacheTTL < 0 {
		cfg.CatalogCacheTTL = 0
	}
	if cfg.FetchRatePerHost < 0 {
		cfg.FetchRatePerHost = 0
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "INFO"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	switch cfg.AdultRule {
	case "flag", "flag-with-non-adult-tag":
	default:
		return Config{}, fmt.Errorf("invalid ADULT_RULE %q, expected flag|flag-with-non-adult-tag", cfg.AdultRule)
	}

	return cfg, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q, expected DEBUG|INFO|WARN|ERROR", raw)
	}
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
