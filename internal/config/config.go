package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultSQLitePath   = "lifesync.db"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port          string
	DatabaseURL   string
	SQLitePath    string
	GormLogLevel  string
	RedisURL      string
	LocalTimezone *time.Location
	PollInterval  time.Duration

	// NotificationsGranted seeds the permission gate when nothing is stored yet.
	NotificationsGranted bool

	OpenAIAPIKey string
	OpenAIModel  string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string

	TelegramBotToken string
	TelegramChatID   int64

	LineChannelSecret string
	LineChannelToken  string
	LineUserID        string

	LogLevel string
	LogFile  string
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	return &Config{
		Port:                 getenvDefault("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getenvDefault("SQLITE_PATH", defaultSQLitePath),
		GormLogLevel:         getenvDefault("GORM_LOG_LEVEL", "warn"),
		RedisURL:             os.Getenv("REDIS_URL"),
		LocalTimezone:        location,
		PollInterval:         ParseDurationEnv("POLL_INTERVAL", defaultPollInterval),
		NotificationsGranted: ParseBoolEnv("NOTIFICATIONS_GRANTED", false),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          getenvDefault("OPENAI_MODEL", defaultOpenAIModel),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:       ParseInt64Env("TELEGRAM_CHAT_ID", 0),
		LineChannelSecret:    os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:     os.Getenv("LINE_CHANNEL_TOKEN"),
		LineUserID:           os.Getenv("LINE_USER_ID"),
		LogLevel:             getenvDefault("LOG_LEVEL", "info"),
		LogFile:              os.Getenv("LOG_FILE"),
	}
}

// TwilioEnabled reports whether WhatsApp delivery is configured.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppNumber != ""
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// LineEnabled reports whether LINE push delivery is configured.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelToken != "" && c.LineUserID != ""
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

// ParseInt64Env is ParseIntEnv for identifiers that overflow int32, such as Telegram chat ids.
func ParseInt64Env(key string, def int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int64: %v", key, value, err)
		return def
	}
	return parsed
}

// ParseDurationEnv accepts Go duration strings ("15s") or a bare number of seconds.
func ParseDurationEnv(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		value = strconv.Itoa(seconds) + "s"
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		log.Printf("config: unable to parse %s=%q as a positive duration: %v", key, value, err)
		return def
	}
	return parsed
}

// ParseBoolEnv returns the boolean value for an environment variable or the provided default.
func ParseBoolEnv(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as bool: %v", key, value, err)
		return def
	}
	return parsed
}
