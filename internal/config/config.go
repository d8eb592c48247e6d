package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Gemini     GeminiConfig
	Realtime   RealtimeConfig
	Qdrant     QdrantConfig
	Storage    StorageConfig
	Pricing    PricingConfig
	Submission SubmissionConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type GeminiConfig struct {
	APIKey string
}

// RealtimeConfig holds the credentials for the realtime voice session. A
// missing API key is a blocking configuration error: no session is created.
type RealtimeConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Voice   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

// PricingConfig carries the fixed rate constants for the cost estimator.
type PricingConfig struct {
	InputUSDPerToken  float64
	OutputUSDPerToken float64
	AudioUSDPerSecond float64
	USDToMYR          float64
}

type SubmissionConfig struct {
	Endpoint string
	APIKey   string
}

type WorkerConfig struct {
	Concurrency      int
	RetryMaxAttempts int
	PollInterval     time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "interview_orchestrator"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		Realtime: RealtimeConfig{
			APIKey:  getEnv("REALTIME_API_KEY", ""),
			Model:   getEnv("REALTIME_MODEL", "gpt-4o-realtime-preview"),
			BaseURL: getEnv("REALTIME_BASE_URL", "wss://api.openai.com/v1/realtime"),
			Voice:   getEnv("REALTIME_VOICE", "alloy"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "role_context_docs"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Pricing: PricingConfig{
			InputUSDPerToken:  getEnvAsFloat("PRICE_INPUT_USD_PER_TOKEN", 0.0000025),
			OutputUSDPerToken: getEnvAsFloat("PRICE_OUTPUT_USD_PER_TOKEN", 0.00001),
			AudioUSDPerSecond: getEnvAsFloat("PRICE_AUDIO_USD_PER_SECOND", 0.0017),
			USDToMYR:          getEnvAsFloat("FX_USD_TO_MYR", 4.45),
		},
		Submission: SubmissionConfig{
			Endpoint: getEnv("SUBMISSION_ENDPOINT", ""),
			APIKey:   getEnv("SUBMISSION_API_KEY", ""),
		},
		Worker: WorkerConfig{
			Concurrency:      getEnvAsInt("WORKER_CONCURRENCY", 3),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			PollInterval:     getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
