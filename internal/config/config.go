package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=password dbname=strove port=5432 sslmode=disable"

// DefaultJWTSecret signs tokens when JWT_SECRET is unset. Local development only.
const DefaultJWTSecret = "dev_secret_change_me"

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins []string
	LogFile     string

	LLM    LLMConfig
	MinIO  MinIOConfig
	Redis  RedisConfig
	Notion NotionConfig
	Mail   MailConfig
}

type LLMConfig struct {
	// Provider is "openai" or "gemini".
	Provider          string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIVisionModel string
	GeminiAPIKey      string
	GeminiModel       string
	Timeout           time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c MinIOConfig) Enabled() bool { return c.Endpoint != "" }

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type NotionConfig struct {
	Token      string
	DatabaseID string
}

func (c NotionConfig) Enabled() bool { return c.Token != "" && c.DatabaseID != "" }

type MailConfig struct {
	CredentialsFile string
	TokenFile       string
	WatchEmail      string
	PollInterval    time.Duration
}

// InsecureJWTSecret reports whether tokens are signed with the built-in
// development secret.
func (c *Config) InsecureJWTSecret() bool { return c.JWTSecret == DefaultJWTSecret }

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", defaultDSN),
		JWTSecret:   getEnv("JWT_SECRET", DefaultJWTSecret),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "")),
		LogFile:     getEnv("LOG_FILE", ""),
		LLM: LLMConfig{
			Provider:          strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:           getDuration("LLM_TIMEOUT", 60*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "resumes"),
			UseSSL:    getBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Notion: NotionConfig{
			Token:      getEnv("NOTION_TOKEN", ""),
			DatabaseID: strings.ReplaceAll(getEnv("NOTION_DB_ID", ""), "-", ""),
		},
		Mail: MailConfig{
			CredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", "credential.json"),
			TokenFile:       getEnv("GMAIL_TOKEN_FILE", "token.json"),
			WatchEmail:      getEnv("MAIL_WATCH_EMAIL", ""),
			PollInterval:    getDuration("MAIL_POLL_INTERVAL", time.Minute),
		},
	}
	return cfg
}

// IsPlaceholder reports whether v is an unset or template value such as
// "your_api_key_here".
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "your_") && strings.HasSuffix(lower, "_here") ||
		strings.Contains(lower, "placeholder")
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if IsPlaceholder(v) {
		return fallback
	}
	return strings.TrimSpace(v)
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
