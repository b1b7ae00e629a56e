package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries all environment-driven settings. The timeout and delay
// values are policy, not protocol: they bound how long the fallback path
// waits and how long error chips stay visible before auto-recovery.
type Config struct {
	Port string

	// Upstream realtime conversational-AI service.
	RealtimeAPIKey  string
	RealtimeBaseURL string
	RealtimeModel   string
	RealtimeVoice   string

	// Fallback reasoning backend.
	GeminiAPIKey string

	// Legacy dictation path.
	ElevenLabsAPIKey string

	// Catalog store.
	MongoURI      string
	MongoDatabase string

	// Commerce backend used to resolve cart lines at checkout.
	CommerceResolveURL string

	// Client session tokens.
	JWTSecret string

	FallbackTimeout       time.Duration
	ErrorDisplayDelay     time.Duration
	LiveErrorDisplayDelay time.Duration
}

// Load reads configuration from the environment, applying development
// defaults where a value is absent.
func Load() Config {
	return Config{
		Port:                  getEnv("PORT", "8080"),
		RealtimeAPIKey:        os.Getenv("REALTIME_API_KEY"),
		RealtimeBaseURL:       getEnv("REALTIME_BASE_URL", "https://api.openai.com"),
		RealtimeModel:         getEnv("REALTIME_MODEL", "gpt-4o-realtime-preview-2025-06-03"),
		RealtimeVoice:         getEnv("REALTIME_VOICE", "sage"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		ElevenLabsAPIKey:      os.Getenv("ELEVENLABS_API_KEY"),
		MongoURI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:         getEnv("MONGODB_DATABASE", "maisonverre"),
		CommerceResolveURL:    os.Getenv("COMMERCE_RESOLVE_URL"),
		JWTSecret:             getEnv("JWT_SECRET", "development-secret"),
		FallbackTimeout:       getDuration("FALLBACK_TIMEOUT_SECONDS", 45*time.Second),
		ErrorDisplayDelay:     getDuration("ERROR_DISPLAY_SECONDS", 4*time.Second),
		LiveErrorDisplayDelay: getDuration("LIVE_ERROR_DISPLAY_SECONDS", 3*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
