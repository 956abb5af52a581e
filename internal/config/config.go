package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Venue    VenueConfig
	WA       WAConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

// SessionConfig carries the conversational session timing knobs. All values
// come from env as seconds; the registry consumes them as durations.
type SessionConfig struct {
	InactivityWarning time.Duration
	InactivityEnd     time.Duration
	ForcedLimit       time.Duration
	ForcedWarningLead time.Duration
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	OpenAI string
}

type AIConfig struct {
	LLMProvider   string // "ollama" or "openai"
	LLMModel      string
	OllamaBaseURL string
}

type VenueConfig struct {
	BaseURL        string // recommendation/booking API root
	DefaultKVenue  int
	TicketCacheTTL time.Duration
}

type WAConfig struct {
	GatewayURL    string // wa gateway send endpoint root
	WebhookSecret string // shared secret checked on inbound webhook calls
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			InactivityWarning: getEnvAsSeconds("SESSION_INACTIVITY_WARNING_SECONDS", 180),
			InactivityEnd:     getEnvAsSeconds("SESSION_INACTIVITY_END_SECONDS", 300),
			ForcedLimit:       getEnvAsSeconds("SESSION_FORCED_LIMIT_SECONDS", 3600),
			ForcedWarningLead: getEnvAsSeconds("SESSION_FORCED_WARNING_LEAD_SECONDS", 300),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Venuexplorer"),
		},
		Keys: APIKeys{
			OpenAI: getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
			LLMModel:      getEnv("LLM_MODEL", "gpt-4.1-mini"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Venue: VenueConfig{
			BaseURL:        getEnv("VENUE_API_URL", ""),
			DefaultKVenue:  getEnvAsInt("VENUE_DEFAULT_K", 5),
			TicketCacheTTL: getEnvAsSeconds("VENUE_TICKET_CACHE_TTL_SECONDS", 3600),
		},
		WA: WAConfig{
			GatewayURL:    getEnv("WA_GATEWAY_URL", ""),
			WebhookSecret: getEnv("WA_WEBHOOK_SECRET", ""),
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

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
