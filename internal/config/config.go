package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. Values come from environment
// variables; .env is loaded in main for local development via godotenv.
type Config struct {
	Port   string
	LogEnv string

	// RealPhoneNumber is the destination for transferred calls.
	RealPhoneNumber string

	// Azure OpenAI settings for the screening model.
	AzureOpenAIEndpoint   string
	AzureOpenAIKey        string
	AzureOpenAIDeployment string
	AzureOpenAIAPIVersion string
	ModelTimeout          time.Duration

	// Redis settings for the allow-list lookup cache. Optional: the server
	// runs without Redis, hitting the database on every lookup.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// AdminJWTSecret signs and verifies admin dashboard tokens.
	AdminJWTSecret string

	// SessionIdleTimeout bounds how long an abandoned call keeps its session.
	SessionIdleTimeout time.Duration

	// Speech collection tunables, in seconds (carrier attribute granularity).
	GatherTimeoutSec   int
	RepromptTimeoutSec int
	DialTimeoutSec     int
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Port:   getEnvOrDefault("PORT", "8080"),
		LogEnv: getEnvOrDefault("LOG_ENV", "development"),

		RealPhoneNumber: getEnvOrDefault("REAL_PHONE_NUMBER", ""),

		AzureOpenAIEndpoint:   getEnvOrDefault("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIKey:        getEnvOrDefault("AZURE_OPENAI_KEY", ""),
		AzureOpenAIDeployment: getEnvOrDefault("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		AzureOpenAIAPIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-01-01-preview"),
		ModelTimeout:          time.Duration(getEnvIntOrDefault("MODEL_TIMEOUT_SECONDS", 15)) * time.Second,

		RedisHost:     getEnvOrDefault("REDIS_HOST", ""),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		AdminJWTSecret: getEnvOrDefault("ADMIN_JWT_SECRET", ""),

		SessionIdleTimeout: time.Duration(getEnvIntOrDefault("SESSION_IDLE_TIMEOUT_MINUTES", 10)) * time.Minute,

		GatherTimeoutSec:   getEnvIntOrDefault("GATHER_TIMEOUT_SECONDS", 6),
		RepromptTimeoutSec: getEnvIntOrDefault("REPROMPT_TIMEOUT_SECONDS", 5),
		DialTimeoutSec:     getEnvIntOrDefault("DIAL_TIMEOUT_SECONDS", 30),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
