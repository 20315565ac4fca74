package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Grammar  GrammarConfig
	Qdrant   QdrantConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Log      LogConfig

	// EnvFileLoaded is false when no .env file was found and only the
	// process environment and defaults apply.
	EnvFileLoaded bool
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

// RedisConfig is optional. An empty URL keeps stage locks in process.
type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider          string
	RequestTimeout    time.Duration
	MaxRetries        int
	RetryInitialDelay time.Duration
	RateLimit         float64
	Gemini            GeminiConfig
	OpenRouter        OpenRouterConfig
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GrammarConfig struct {
	URL      string
	Language string
	Timeout  time.Duration
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

type WorkerConfig struct {
	Concurrency  int
	QueueSize    int
	StageTimeout time.Duration
	LockTTL      time.Duration
	StaleAfter   time.Duration
	PollInterval time.Duration
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

var validProviders = map[string]bool{
	"gemini":     true,
	"openrouter": true,
}

func Load() *Config {
	envFileLoaded := godotenv.Load() == nil

	return &Config{
		EnvFileLoaded: envFileLoaded,

		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "jobify"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		AI: AIConfig{
			Provider:          strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
			RequestTimeout:    getEnvAsDuration("AI_REQUEST_TIMEOUT", "60s"),
			MaxRetries:        getEnvAsInt("AI_MAX_RETRIES", 3),
			RetryInitialDelay: getEnvAsDuration("AI_RETRY_INITIAL_DELAY", "2s"),
			RateLimit:         getEnvAsFloat("AI_RATE_LIMIT", 5),
			Gemini: GeminiConfig{
				APIKey:     getEnv("GEMINI_API_KEY", ""),
				Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
				EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey:  getEnv("OPEN_ROUTER_API_KEY", ""),
				Model:   getEnv("OPEN_ROUTER_MODEL", "openai/gpt-4o"),
				BaseURL: getEnv("OPEN_ROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			},
		},
		Grammar: GrammarConfig{
			URL:      getEnv("LANGUAGETOOL_URL", "https://api.languagetool.org/v2/check"),
			Language: getEnv("LANGUAGETOOL_LANGUAGE", "en-US"),
			Timeout:  getEnvAsDuration("LANGUAGETOOL_TIMEOUT", "30s"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "interview_guides"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 5242880),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			QueueSize:    getEnvAsInt("WORKER_QUEUE_SIZE", 100),
			StageTimeout: getEnvAsDuration("STAGE_TIMEOUT", "5m"),
			LockTTL:      getEnvAsDuration("STAGE_LOCK_TTL", "10m"),
			StaleAfter:   getEnvAsDuration("STAGE_STALE_AFTER", "15m"),
			PollInterval: getEnvAsDuration("STAGE_POLL_INTERVAL", "30s"),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", false),
			Debug: getEnvAsBool("LOG_DEBUG", false),
		},
	}
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("unknown AI provider %q: must be one of gemini, openrouter", c.AI.Provider)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency)
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("WORKER_QUEUE_SIZE must be positive, got %d", c.Worker.QueueSize)
	}
	if c.AI.MaxRetries <= 0 {
		return fmt.Errorf("AI_MAX_RETRIES must be positive, got %d", c.AI.MaxRetries)
	}
	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Storage.MaxFileSize)
	}
	return nil
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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
