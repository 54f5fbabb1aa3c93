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
	assert.Equal(t, "gemini-2.5-pro", cfg.MedicalModelID)
	assert.Equal(t, "gemini-2.5-flash", cfg.HealthcareModelID)
	assert.Equal(t, 4, cfg.ConsultationTurnLimit)
	assert.Equal(t, 3, cfg.QuestionSoftLimit)
	assert.Equal(t, 60, cfg.TrackerRateLimit)
	assert.Equal(t, time.Minute, cfg.TrackerRateWindow)
	assert.False(t, cfg.TrackerUseRedisLimiter)
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CONSULTATION_TURN_LIMIT", "6")
	t.Setenv("TRACKER_RATE_WINDOW", "30s")
	t.Setenv("TRACKER_USE_REDIS_LIMITER", "true")
	t.Setenv("MEDICAL_TEMPERATURE", "0.15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 6, cfg.ConsultationTurnLimit)
	assert.Equal(t, 30*time.Second, cfg.TrackerRateWindow)
	assert.True(t, cfg.TrackerUseRedisLimiter)
	assert.InDelta(t, 0.15, cfg.MedicalTemperature, 1e-9)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CONSULTATION_TURN_LIMIT", "not-a-number")
	t.Setenv("TRACKER_RATE_WINDOW", "soon")
	t.Setenv("REDIS_TLS", "yep")

	cfg := Load()

	assert.Equal(t, 4, cfg.ConsultationTurnLimit)
	assert.Equal(t, time.Minute, cfg.TrackerRateWindow)
	assert.False(t, cfg.RedisTLS)
}
