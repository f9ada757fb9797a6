package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(""))
	assert.True(t, IsPlaceholder("   "))
	assert.True(t, IsPlaceholder("your_api_key_here"))
	assert.True(t, IsPlaceholder("https://placeholder.supabase.co"))
	assert.False(t, IsPlaceholder("sk-live-123"))
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "your_openai_key_here")
	t.Setenv("MAIL_POLL_INTERVAL", "garbage")
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("NOTION_TOKEN", "")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAIVisionModel)
	assert.Equal(t, time.Minute, cfg.Mail.PollInterval)
	assert.False(t, cfg.MinIO.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Notion.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("NOTION_TOKEN", "secret")
	t.Setenv("NOTION_DB_ID", "abc-def-123")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://strove.app ,")
	t.Setenv("MAIL_POLL_INTERVAL", "5m")

	cfg := FromEnv()

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "abcdef123", cfg.Notion.DatabaseID)
	assert.True(t, cfg.Notion.Enabled())
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, []string{"http://localhost:3000", "https://strove.app"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Mail.PollInterval)
}

func TestInsecureJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.True(t, FromEnv().InsecureJWTSecret())

	t.Setenv("JWT_SECRET", "your_jwt_secret_here")
	assert.True(t, FromEnv().InsecureJWTSecret())

	t.Setenv("JWT_SECRET", "0f3b1c9e6a")
	assert.False(t, FromEnv().InsecureJWTSecret())
}
