package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	LLMModel       string // e.g. "gemini-1.5-flash"
	EmbeddingModel string // e.g. "text-embedding-004"
	MaxRetries     int    // attempt cap for rate-limited completion calls
}

type RetrievalConfig struct {
	SimilarityThreshold float64
	TopK                int
}

type TelemetryConfig struct {
	Sink          string // "memory", "redis" or "postgres"
	PublishEvents bool   // emit diagnostic.completed events to NATS
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMModel:       getEnv("LLM_MODEL", "gemini-1.5-flash"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			MaxRetries:     getEnvAsInt("LLM_MAX_RETRIES", 3),
		},
		Retrieval: RetrievalConfig{
			SimilarityThreshold: getEnvAsFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.35),
			TopK:                getEnvAsInt("RETRIEVAL_TOP_K", 5),
		},
		Telemetry: TelemetryConfig{
			Sink:          getEnv("TELEMETRY_SINK", "memory"),
			PublishEvents: getEnv("TELEMETRY_PUBLISH_EVENTS", "false") == "true",
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
