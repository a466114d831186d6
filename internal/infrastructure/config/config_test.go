package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailforward/internal/domain/payment"
	"mailforward/internal/domain/routing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GMAIL_CLIENT_ID", "id")
	t.Setenv("GMAIL_CLIENT_SECRET", "secret")
	t.Setenv("GMAIL_REFRESH_TOKEN", "refresh")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_GROUP_ID", "-1001234567890")
	t.Setenv("LABEL_TO_THREAD_MAPPING", `{"Bank/Cards": 2, "Bank/Incoming": 4}`)
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := fromEnv(false)
	require.NoError(t, err)

	assert.Equal(t, int64(-1001234567890), cfg.TelegramGroupID)
	assert.Equal(t, 300*time.Second, cfg.CheckInterval)
	assert.Equal(t, 4000, cfg.MaxMessageLength)
	assert.Equal(t, payment.DefaultFallbackRecipient, cfg.FallbackRecipient)
	assert.Equal(t, "logs/mail_bot.log", cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.PushEnabled())
	assert.Equal(t, []routing.Route{
		{Label: "Bank/Cards", ThreadID: 2},
		{Label: "Bank/Incoming", ThreadID: 4},
	}, cfg.LabelThreadMap)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECK_INTERVAL", "60")
	t.Setenv("MAX_MESSAGE_LENGTH", "1000")
	t.Setenv("GENERIC_FALLBACK_RECIPIENT", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "proj")
	t.Setenv("SUBSCRIPTION_ID", "sub")

	cfg, err := fromEnv(true)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.CheckInterval)
	assert.Equal(t, 1000, cfg.MaxMessageLength)
	assert.Empty(t, cfg.FallbackRecipient)
	assert.Empty(t, cfg.LogFile)
	assert.True(t, cfg.PushEnabled())
	assert.Equal(t, "projects/proj/topics/gmail-topic", cfg.TopicName)
}

func TestFromEnvRequired(t *testing.T) {
	for _, key := range []string{
		"GMAIL_CLIENT_ID",
		"GMAIL_REFRESH_TOKEN",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_GROUP_ID",
		"LABEL_TO_THREAD_MAPPING",
	} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := fromEnv(false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestFromEnvInvalidNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECK_INTERVAL", "soon")

	_, err := fromEnv(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECK_INTERVAL")
}

func TestParseLabelThreadMapKeepsOrder(t *testing.T) {
	routes, err := ParseLabelThreadMap(`{"z": 1, "a": 2, "m": 3, "Налоги": 4}`)
	require.NoError(t, err)

	assert.Equal(t, []routing.Route{
		{Label: "z", ThreadID: 1},
		{Label: "a", ThreadID: 2},
		{Label: "m", ThreadID: 3},
		{Label: "Налоги", ThreadID: 4},
	}, routes)
}

func TestParseLabelThreadMapErrors(t *testing.T) {
	tests := map[string]string{
		"not an object":  `[1, 2]`,
		"empty":          `{}`,
		"duplicate":      `{"Bank": 1, "bank": 2}`,
		"fractional id":  `{"Bank": 1.5}`,
		"string id":      `{"Bank": "two"}`,
		"nested value":   `{"Bank": {"id": 1}}`,
		"malformed json": `{"Bank": 1`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLabelThreadMap(raw)
			assert.Error(t, err)
		})
	}
}
