package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"mailforward/internal/domain/payment"
	"mailforward/internal/domain/routing"
)

type Config struct {
	// Gmail
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string

	// Telegram
	TelegramBotToken string
	TelegramGroupID  int64

	// Routing
	LabelThreadMap []routing.Route

	// Google Cloud push notifications, optional
	GoogleCloudProject string
	SubscriptionID     string
	TopicName          string

	// Logging
	LogLevel string
	LogFile  string

	// Delivery journal, optional
	DeliveryLogPath string

	// App settings
	CheckInterval     time.Duration
	MaxMessageLength  int
	FallbackRecipient string

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

// PushEnabled reports whether Pub/Sub wake-ups are configured.
func (c *Config) PushEnabled() bool {
	return c.GoogleCloudProject != "" && c.SubscriptionID != ""
}

func Load() (*Config, error) {
	loaded := godotenv.Load() == nil
	return fromEnv(loaded)
}

func fromEnv(envFileLoaded bool) (*Config, error) {
	cfg := &Config{
		GmailClientID:      getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret:  getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken:  getEnv("GMAIL_REFRESH_TOKEN", ""),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		GoogleCloudProject: getEnv("GOOGLE_CLOUD_PROJECT", ""),
		SubscriptionID:     getEnv("SUBSCRIPTION_ID", ""),
		TopicName:          getEnv("PUBSUB_TOPIC", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            lookupEnv("LOG_FILE", "logs/mail_bot.log"),
		DeliveryLogPath:    getEnv("DELIVERY_LOG_PATH", ""),
		FallbackRecipient:  lookupEnv("GENERIC_FALLBACK_RECIPIENT", payment.DefaultFallbackRecipient),
		EnvFileLoaded:      envFileLoaded,
	}

	// Validate required fields
	for _, req := range []struct{ key, value string }{
		{"GMAIL_CLIENT_ID", cfg.GmailClientID},
		{"GMAIL_CLIENT_SECRET", cfg.GmailClientSecret},
		{"GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken},
		{"TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("%s is required", req.key)
		}
	}

	groupID := getEnv("TELEGRAM_GROUP_ID", "")
	if groupID == "" {
		return nil, fmt.Errorf("TELEGRAM_GROUP_ID is required")
	}
	id, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_GROUP_ID: %w", err)
	}
	cfg.TelegramGroupID = id

	mapping := getEnv("LABEL_TO_THREAD_MAPPING", "")
	if mapping == "" {
		return nil, fmt.Errorf("LABEL_TO_THREAD_MAPPING is required")
	}
	if cfg.LabelThreadMap, err = ParseLabelThreadMap(mapping); err != nil {
		return nil, fmt.Errorf("LABEL_TO_THREAD_MAPPING: %w", err)
	}

	interval, err := getEnvInt("CHECK_INTERVAL", 300)
	if err != nil {
		return nil, err
	}
	if interval < 0 {
		return nil, fmt.Errorf("CHECK_INTERVAL must not be negative")
	}
	cfg.CheckInterval = time.Duration(interval) * time.Second

	if cfg.MaxMessageLength, err = getEnvInt("MAX_MESSAGE_LENGTH", 4000); err != nil {
		return nil, err
	}

	if cfg.TopicName == "" && cfg.GoogleCloudProject != "" {
		cfg.TopicName = fmt.Sprintf("projects/%s/topics/gmail-topic", cfg.GoogleCloudProject)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv treats a variable set to "" as an explicit empty value.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
