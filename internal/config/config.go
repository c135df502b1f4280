package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все настройки процесса: секреты внешних сервисов,
// адреса API и параметры повторов. Собирается один раз в main
// и передаётся компонентам явно — глобального состояния нет.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	GeminiURL    string

	LinkedInToken     string
	LinkedInPersonURN string
	LinkedInURL       string

	TrendsURL       string
	TrendsGeo       string
	TrendAttempts   int
	TrendRetryDelay time.Duration

	HTTPTimeout time.Duration

	RedisAddr  string
	RunLockTTL time.Duration
}

// Load читает конфигурацию из переменных окружения, предварительно
// подгружая .env, если он есть. Значения не проверяются — см. Validate.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiURL:    getEnv("GEMINI_URL", "https://generativelanguage.googleapis.com/v1beta"),

		LinkedInToken:     os.Getenv("LINKEDIN_ACCESS_TOKEN"),
		LinkedInPersonURN: os.Getenv("LINKEDIN_PERSON_URN"),
		LinkedInURL:       getEnv("LINKEDIN_URL", "https://api.linkedin.com"),

		TrendsURL:       getEnv("TRENDS_URL", "https://trends.google.com"),
		TrendsGeo:       getEnv("TRENDS_GEO", "IN"),
		TrendAttempts:   getEnvInt("TREND_ATTEMPTS", 3),
		TrendRetryDelay: getEnvDuration("TREND_RETRY_DELAY", 5*time.Second),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		RedisAddr:  os.Getenv("REDIS_ADDR"),
		RunLockTTL: getEnvDuration("RUN_LOCK_TTL", 24*time.Hour),
	}
}

// Validate проверяет наличие обязательных секретов и возвращает одну
// ошибку, перечисляющую все отсутствующие переменные сразу.
func (cfg *Config) Validate() error {
	var missing []string
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.LinkedInToken == "" {
		missing = append(missing, "LINKEDIN_ACCESS_TOKEN")
	}
	if cfg.LinkedInPersonURN == "" {
		missing = append(missing, "LINKEDIN_PERSON_URN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	if cfg.TrendAttempts < 1 {
		return fmt.Errorf("TREND_ATTEMPTS must be ≥ 1, got %d", cfg.TrendAttempts)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
