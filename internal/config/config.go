package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported ticket store backends.
const (
	StoreCSV      = "csv"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Supported classification providers.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	LLM          LLMConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// Location is the zone ticket timestamps are written and read in. Nil
	// keeps the process default.
	Location *time.Location
}

// StoreConfig selects where tickets and knowledge base articles live.
type StoreConfig struct {
	Backend           string
	TicketsPath       string
	SQLitePath        string
	KnowledgeBasePath string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// LLMConfig configures the classification gateway.
type LLMConfig struct {
	Provider         string
	Model            string
	BaseURL          string
	APIKey           string
	APIKeyName       string
	Temperature      float64
	TopP             float64
	MaxTokens        int
	IncludeKnowledge bool
	CacheTTL         time.Duration
	// KeyErr is set when no API key could be resolved.
	KeyErr error
}

// AuthConfig defines the optional admin credential.
type AuthConfig struct {
	AdminPasswordHash     string
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// AdminEnabled reports whether admin routes should be registered.
func (a AuthConfig) AdminEnabled() bool {
	return strings.TrimSpace(a.AdminPasswordHash) != ""
}

// NotificationConfig holds notification endpoints.
type NotificationConfig struct {
	EmailFrom       string
	SlackWebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
// A missing classification API key is not fatal here; it is recorded in LLM.KeyErr
// so callers that never classify can still run.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("TICKET_STORE", StoreCSV))
	switch backend {
	case StoreCSV, StoreSQLite, StorePostgres:
	default:
		return nil, fmt.Errorf("invalid TICKET_STORE %q: must be csv, sqlite or postgres", backend)
	}

	var location *time.Location
	if tz := strings.TrimSpace(os.Getenv("APP_TIMEZONE")); tz != "" {
		location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
		}
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq))
	llmCfg, err := loadLLMConfig(provider)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
			Location:              location,
		},
		Store: StoreConfig{
			Backend:           backend,
			TicketsPath:       getEnv("TICKETS_CSV_PATH", "data/tickets.csv"),
			SQLitePath:        getEnv("TICKETS_SQLITE_PATH", "data/tickets.db"),
			KnowledgeBasePath: getEnv("KNOWLEDGE_BASE_PATH", "data/knowledge_base.json"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		LLM: llmCfg,
		Auth: AuthConfig{
			AdminPasswordHash:     os.Getenv("AUTH_ADMIN_PASSWORD_HASH"),
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:       getEnv("NOTIFY_EMAIL_FROM", ""),
			SlackWebhookURL: getEnv("NOTIFY_SLACK_WEBHOOK_URL", ""),
		},
	}

	if cfg.Store.Backend == StorePostgres && cfg.Postgres.DSN == "" {
		return nil, errors.New("TICKET_STORE=postgres requires POSTGRES_DSN")
	}

	return cfg, nil
}

func loadLLMConfig(provider string) (LLMConfig, error) {
	cfg := LLMConfig{
		Provider:         provider,
		Temperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		TopP:             getEnvAsFloat("LLM_TOP_P", 0.9),
		MaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 1024),
		IncludeKnowledge: getEnvAsBool("LLM_INCLUDE_KNOWLEDGE_BASE", false),
		CacheTTL:         getEnvAsDuration("CLASSIFY_CACHE_TTL", time.Hour),
	}

	switch provider {
	case ProviderGroq:
		cfg.APIKeyName = "GROQ_API_KEY"
		cfg.Model = getEnv("LLM_MODEL", "llama-3.3-70b-versatile")
		cfg.BaseURL = getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1")
	case ProviderOpenAI:
		cfg.APIKeyName = "OPENAI_API_KEY"
		cfg.Model = getEnv("LLM_MODEL", "gpt-4o-mini")
		cfg.BaseURL = getEnv("LLM_BASE_URL", "https://api.openai.com/v1")
	case ProviderAnthropic:
		cfg.APIKeyName = "ANTHROPIC_API_KEY"
		cfg.Model = getEnv("LLM_MODEL", "claude-sonnet-4-5-20250929")
		cfg.BaseURL = os.Getenv("LLM_BASE_URL")
	default:
		return LLMConfig{}, fmt.Errorf("invalid LLM_PROVIDER %q: must be groq, openai or anthropic", provider)
	}

	secrets, err := LoadSecrets(getEnv("SECRETS_PATH", DefaultSecretsPath))
	if err != nil {
		return LLMConfig{}, err
	}
	cfg.APIKey, cfg.KeyErr = ResolveAPIKey(cfg.APIKeyName, secrets)
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ApplyTimezone makes Location the process-wide local zone. Stored
// timestamps carry no offset, so a zone without DST (such as UTC) keeps every
// saved instant unambiguous on reload.
func (a AppConfig) ApplyTimezone() {
	if a.Location != nil {
		time.Local = a.Location
	}
}

// AccessTokenTTL returns the admin token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
