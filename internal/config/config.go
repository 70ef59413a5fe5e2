package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Speech   SpeechConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "ark" or "ollama"
	LLMModel          string // Ark endpoint id or Ollama model name
	ArkAPIKey         string
	ArkBaseURL        string
	LLMTimeoutSec     int // upper bound for a single generation call
	OllamaBaseURL     string
	EmbeddingProvider string // "gemini" or "ollama"
	EmbeddingModel    string
	GoogleGemini      string
	RetrievalTopK     int
}

type SpeechConfig struct {
	XfyunAppID     string
	XfyunAPIKey    string
	XfyunAPISecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8001"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ark"),
			LLMModel:          getEnv("LLM_MODEL", "ep-20250105222308-5f4lk"),
			ArkAPIKey:         getEnv("ARK_API_KEY", ""),
			ArkBaseURL:        getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			LLMTimeoutSec:     getEnvAsInt("LLM_TIMEOUT_SECONDS", 120),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			GoogleGemini:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			RetrievalTopK:     getEnvAsInt("RETRIEVAL_TOP_K", 3),
		},
		Speech: SpeechConfig{
			XfyunAppID:     getEnv("XFYUN_APP_ID", ""),
			XfyunAPIKey:    getEnv("XFYUN_API_KEY", ""),
			XfyunAPISecret: getEnv("XFYUN_API_SECRET", ""),
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
