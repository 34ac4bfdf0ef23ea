package infra

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	BriaAPIKey         string
	BriaBaseURL        string
	SupabaseURL        string
	SupabaseKey        string
	SupabaseBucket     string
	DatabaseURL        string
	RedisURL           string
	StorageBackend     string
	StoragePath        string
	StorageBaseURL     string
	S3Bucket           string
	S3PublicBaseURL    string
	SessionSecret      string
	SessionTTL         time.Duration
	PollMaxAttempts    int
	PollInterval       time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Nothing is mandatory: a missing credential only disables the feature that needs it.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		BriaAPIKey:         strings.TrimSpace(os.Getenv("BRIA_API_KEY")),
		BriaBaseURL:        getEnv("BRIA_BASE_URL", "https://engine.prod.bria-api.com/v1"),
		SupabaseURL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseKey:        os.Getenv("SUPABASE_KEY"),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "user-files"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		StorageBackend:     strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND"))),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionTTL:         time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 720)),
		PollMaxAttempts:    getEnvInt("POLL_MAX_ATTEMPTS", 3),
		PollInterval:       time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 3
	}

	return cfg, nil
}

// GenerationEnabled reports whether a default remote API key is configured.
func (c *Config) GenerationEnabled() bool {
	return c.BriaAPIKey != ""
}

// SupabaseEnabled reports whether the hosted BaaS is configured.
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
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

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf)
}
