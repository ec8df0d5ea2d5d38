package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Kaizen Digital", cfg.AgencyName)
	assert.Equal(t, 1*time.Minute, cfg.DispatchInterval)
	assert.Equal(t, 25, cfg.DispatchBatchSize)
	assert.Equal(t, 24*time.Hour, cfg.ChatSessionTTL)
	assert.Equal(t, "sendgrid", cfg.EmailProvider)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DISPATCH_INTERVAL", "30s")
	t.Setenv("DISPATCH_BATCH_SIZE", "100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://kaizen-digital.com, https://www.kaizen-digital.com")
	t.Setenv("EMAIL_PROVIDER", "SES")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.DispatchInterval)
	assert.Equal(t, 100, cfg.DispatchBatchSize)
	assert.Equal(t, []string{"https://kaizen-digital.com", "https://www.kaizen-digital.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "ses", cfg.EmailProvider)
	assert.True(t, cfg.RedisTLS)
}

func TestGetEnvAsIntBadValue(t *testing.T) {
	t.Setenv("DISPATCH_BATCH_SIZE", "not-a-number")
	cfg := Load()
	assert.Equal(t, 25, cfg.DispatchBatchSize)
}
