package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port     string
	Env      string // "development", "production"
	LogLevel string

	// CORS
	AllowedOrigins []string

	// Catalog
	CatalogSource    string // "ai" or "flyers"
	AIProvider       string // "gemini" or "openai"
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	FetchTimeout     time.Duration // Upper bound for one catalog fetch
	FlyerSourcesFile string        // YAML list of retailer flyer sources
	FlyerRender      bool          // Render flyer pages in a headless browser

	// Refresh
	RefreshEnabled    bool
	RefreshSchedule   string        // Cron expression (e.g., "0 * * * *" for hourly)
	RefreshStaleAfter time.Duration // Minimum age of the last fetch before an automatic one
	RefreshDailyLimit int           // Automatic fetches allowed per calendar day
	Timezone          string        // Zone that defines calendar days

	// Differ
	DiffIdentity string // "id" or "fingerprint"

	// Preferences
	PrefsBackend   string // "bolt", "postgres", "sqlite", "memory"
	PrefsPath      string // bbolt or sqlite file
	DatabaseURL    string
	DatabaseDriver string // "postgres" (lib/pq) or "pgx"

	// Web Push Notifications
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string // mailto:email or URL

	// Telegram
	TelegramBotToken string
	TelegramChatID   int64

	// Location bias used until a client reports coordinates
	DefaultLatitude  float64
	DefaultLongitude float64
}

func Load() *Config {
	return &Config{
		// Server
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: os.Getenv("LOG_LEVEL"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),

		// Catalog
		CatalogSource:    getEnv("CATALOG_SOURCE", "ai"),
		AIProvider:       getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey:     firstEnv("GEMINI_API_KEY", "API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		FetchTimeout:     getDurationEnv("FETCH_TIMEOUT", 30*time.Second),
		FlyerSourcesFile: getEnv("FLYER_SOURCES_FILE", "flyers.yaml"),
		FlyerRender:      getBoolEnv("FLYER_RENDER", false),

		// Refresh
		RefreshEnabled:    getBoolEnv("REFRESH_ENABLED", true),
		RefreshSchedule:   getEnv("REFRESH_SCHEDULE", "0 * * * *"), // Default: hourly at minute 0
		RefreshStaleAfter: getDurationEnv("REFRESH_STALE_AFTER", 8*time.Hour),
		RefreshDailyLimit: getIntEnv("REFRESH_DAILY_LIMIT", 3),
		Timezone:          getEnv("TIMEZONE", "Europe/Budapest"),

		// Differ
		DiffIdentity: getEnv("DIFF_IDENTITY", "id"),

		// Preferences
		PrefsBackend:   getEnv("PREFS_BACKEND", "bolt"),
		PrefsPath:      getEnv("PREFS_PATH", "akciovadasz.db"),
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/akciovadasz?sslmode=disable"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),

		// Web Push Notifications
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:ertesites@akciovadasz.hu"),

		// Telegram
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   getInt64Env("TELEGRAM_CHAT_ID", 0),

		// Location
		DefaultLatitude:  getFloatEnv("DEFAULT_LATITUDE", 0),
		DefaultLongitude: getFloatEnv("DEFAULT_LONGITUDE", 0),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasDefaultLocation reports whether a fallback coordinate pair is configured.
func (c *Config) HasDefaultLocation() bool {
	return c.DefaultLatitude != 0 || c.DefaultLongitude != 0
}

// TelegramEnabled reports whether both bot token and target chat are set.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
