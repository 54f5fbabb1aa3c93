package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Gemini text generation
	GeminiAPIKey          string
	MedicalModelID        string
	HealthcareModelID     string
	GenerationTimeout     time.Duration
	MedicalTemperature    float64
	HealthcareTemperature float64

	// Consultation gating
	ConsultationTurnLimit int
	QuestionSoftLimit     int

	// Marketing tracker
	TrackerRateLimit       int
	TrackerRateWindow      time.Duration
	TrackerUseRedisLimiter bool

	AdminJWTSecret string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		MedicalModelID:        getEnv("MEDICAL_MODEL_ID", "gemini-2.5-pro"),
		HealthcareModelID:     getEnv("HEALTHCARE_MODEL_ID", "gemini-2.5-flash"),
		GenerationTimeout:     getEnvAsDuration("GENERATION_TIMEOUT", 30*time.Second),
		MedicalTemperature:    getEnvAsFloat("MEDICAL_TEMPERATURE", 0.4),
		HealthcareTemperature: getEnvAsFloat("HEALTHCARE_TEMPERATURE", 0.7),

		ConsultationTurnLimit: getEnvAsInt("CONSULTATION_TURN_LIMIT", 4),
		QuestionSoftLimit:     getEnvAsInt("QUESTION_SOFT_LIMIT", 3),

		TrackerRateLimit:       getEnvAsInt("TRACKER_RATE_LIMIT", 60),
		TrackerRateWindow:      getEnvAsDuration("TRACKER_RATE_WINDOW", time.Minute),
		TrackerUseRedisLimiter: getEnvAsBool("TRACKER_USE_REDIS_LIMITER", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
