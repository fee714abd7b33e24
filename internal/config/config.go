// Package config loads application settings from defaults, an optional
// .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
	StoreMemory   = "memory"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port      int
	LogLevel  string
	AppEnv    string
	ClientURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Extraction
	LLMProvider      string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	GeminiAPIKey     string
	GeminiModel      string
	ParserStrictJSON bool

	// Persistence
	StoreBackend     string
	PostgresURL      string
	PostgresMaxConns int32
	PostgresMinConns int32

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// Audit log; empty URI disables it
	MongoURI      string
	MongoDatabase string

	// Auth
	GoogleClientID string
	JWTSecret      string
	JWTTTL         time.Duration
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration. envFile may be empty or point at a file that
// does not exist; both fall back to defaults and the environment.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		Port:      v.GetInt("PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		AppEnv:    v.GetString("APP_ENV"),
		ClientURL: v.GetString("CLIENT_URL"),

		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		CacheTTL: v.GetDuration("CACHE_TTL"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),

		LLMProvider:      strings.ToLower(v.GetString("LLM_PROVIDER")),
		OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:    v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:      v.GetString("OPENAI_MODEL"),
		GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
		GeminiModel:      v.GetString("GEMINI_MODEL"),
		ParserStrictJSON: v.GetBool("PARSER_STRICT_JSON"),

		StoreBackend:     strings.ToLower(v.GetString("STORE_BACKEND")),
		PostgresURL:      v.GetString("POSTGRES_URL"),
		PostgresMaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
		PostgresMinConns: v.GetInt32("POSTGRES_MIN_CONNS"),

		SupabaseURL:        v.GetString("SUPABASE_URL"),
		SupabaseAnonKey:    v.GetString("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: v.GetString("SUPABASE_SERVICE_ROLE_KEY"),

		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		GoogleClientID: v.GetString("GOOGLE_CLIENT_ID"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTTTL:         v.GetDuration("JWT_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")

	v.SetDefault("HTTP_TIMEOUT", 10*time.Second)

	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("INITIAL_BACKOFF", 100*time.Millisecond)
	v.SetDefault("MAX_CONCURRENCY", 50)

	v.SetDefault("CACHE_TTL", 5*time.Minute)

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	v.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("PARSER_STRICT_JSON", false)

	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_MIN_CONNS", 1)
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_ANON_KEY", "")
	v.SetDefault("SUPABASE_SERVICE_ROLE_KEY", "")

	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "finance_tracker")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("JWT_SECRET", "tracker-default-dev-secret-change-me")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be greater than 0")
	}
	if c.MaxRetries < 0 {
		problems = append(problems, "MAX_RETRIES must not be negative")
	}
	if c.MaxConcurrency <= 0 {
		problems = append(problems, "MAX_CONCURRENCY must be greater than 0")
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, "JWT_TTL must be greater than 0")
	}

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		problems = append(problems, fmt.Sprintf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.LLMProvider))
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresURL == "" {
			problems = append(problems, "POSTGRES_URL is required when STORE_BACKEND=postgres")
		}
		if c.PostgresMaxConns <= 0 {
			problems = append(problems, "POSTGRES_MAX_CONNS must be greater than 0")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" {
			problems = append(problems, "SUPABASE_URL is required when STORE_BACKEND=supabase")
		}
		if c.SupabaseServiceKey == "" {
			problems = append(problems, "SUPABASE_SERVICE_ROLE_KEY is required when STORE_BACKEND=supabase")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND must be one of postgres, supabase, memory, got %q", c.StoreBackend))
	}

	if c.IsProduction() {
		if c.JWTSecret == "" || strings.Contains(c.JWTSecret, "default-dev-secret") {
			problems = append(problems, "JWT_SECRET must be set in production")
		}
		if c.GoogleClientID == "" {
			problems = append(problems, "GOOGLE_CLIENT_ID must be set in production")
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
