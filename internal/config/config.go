package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config aggregates application configuration values.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	Gemini        GeminiConfig
}

// GeminiConfig describes the text-generation capability. An empty APIKey
// switches the server to the canned mock generator.
type GeminiConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
}

const (
	defaultPort          = "8080"
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "aegis"
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultGeminiTimeout = 60
)

// Load reads configuration from environment variables, applying defaults.
// JWT_SECRET is the only hard requirement.
func Load() (Config, error) {
	cfg := Config{
		Port:          valueOrDefault("PORT", defaultPort),
		MongoURI:      valueOrDefault("MONGODB_URI", defaultMongoURI),
		MongoDatabase: valueOrDefault("MONGODB_DATABASE", defaultMongoDatabase),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		Gemini: GeminiConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			Model:          valueOrDefault("GEMINI_MODEL", defaultGeminiModel),
			TimeoutSeconds: intOrDefault("GEMINI_TIMEOUT_SECONDS", defaultGeminiTimeout),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
