// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// StoreConfig selects the lead/session store backend.
type StoreConfig interface {
	GetStoreDriver() string
	GetSQLitePath() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetPublicRateLimit() (rps float64, burst int)
}

// RedisConfig provides the Redis connection used by the turn lock and asynq.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	IsRedisEnabled() bool
}

// SchedulerConfig provides settings for background reclassification jobs.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueue() string
	GetAsynqConcurrency() int
	IsWorkerEmbedded() bool
}

// ConversationConfig provides settings for the conversation service.
type ConversationConfig interface {
	GetTurnLockTTL() time.Duration
	GetPhoneDefaultRegion() string
	GetAppBaseURL() string
}

// BusinessConfig selects the Business Script.
type BusinessConfig interface {
	GetIndustry() string
	GetBusinessProfilesPath() string
}

// LLMConfig provides settings for the assisted classifier.
type LLMConfig interface {
	GetLLMProvider() string
	GetLLMModel() string
	GetLLMTimeout() time.Duration
	GetMoonshotAPIKey() string
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketTranscripts() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for hot-lead alert emails.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromName() string
	GetSMTPFromAddress() string
	GetSalesAlertEmail() string
	IsSMTPEnabled() bool
}

// WhatsAppConfig provides settings for the WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	IsWhatsAppEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// LLM providers.
const (
	LLMProviderNone     = "none"
	LLMProviderMoonshot = "moonshot"
	LLMProviderOpenAI   = "openai"
)

// MaxLLMTimeout bounds every assisted classification call.
const MaxLLMTimeout = 15 * time.Second

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	AppBaseURL           string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	PublicRateLimitRPS   float64
	PublicRateLimitBurst int
	JWTAccessSecret      string

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueue       string
	AsynqConcurrency int
	WorkerEmbedded   bool
	TurnLockTTL      time.Duration

	Industry             string
	BusinessProfilesPath string
	PhoneDefaultRegion   string

	LLMProvider    string
	LLMModel       string
	LLMTimeout     time.Duration
	MoonshotAPIKey string
	OpenAIAPIKey   string
	OpenAIBaseURL  string

	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinioBucketTranscripts string

	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFromName    string
	SMTPFromAddress string
	SalesAlertEmail string

	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetStoreDriver() string { return c.StoreDriver }
func (c *Config) GetSQLitePath() string  { return c.SQLitePath }

func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetPublicRateLimit() (float64, int) {
	return c.PublicRateLimitRPS, c.PublicRateLimitBurst
}

func (c *Config) GetRedisURL() string           { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool     { return c.RedisTLSInsecure }
func (c *Config) IsRedisEnabled() bool          { return c.RedisURL != "" }
func (c *Config) GetAsynqQueue() string         { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int      { return c.AsynqConcurrency }
func (c *Config) IsWorkerEmbedded() bool        { return c.WorkerEmbedded }
func (c *Config) GetTurnLockTTL() time.Duration { return c.TurnLockTTL }

func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }
func (c *Config) GetAppBaseURL() string         { return c.AppBaseURL }

func (c *Config) GetIndustry() string             { return c.Industry }
func (c *Config) GetBusinessProfilesPath() string { return c.BusinessProfilesPath }

func (c *Config) GetLLMProvider() string       { return c.LLMProvider }
func (c *Config) GetLLMModel() string          { return c.LLMModel }
func (c *Config) GetLLMTimeout() time.Duration { return c.LLMTimeout }
func (c *Config) GetMoonshotAPIKey() string    { return c.MoonshotAPIKey }
func (c *Config) GetOpenAIAPIKey() string      { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string     { return c.OpenAIBaseURL }

func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketTranscripts() string { return c.MinioBucketTranscripts }
func (c *Config) IsMinIOEnabled() bool              { return c.MinIOEndpoint != "" }

func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) GetSalesAlertEmail() string { return c.SalesAlertEmail }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromAddress != "" && c.SalesAlertEmail != ""
}

func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }
func (c *Config) IsWhatsAppEnabled() bool     { return c.WhatsAppURL != "" }

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return cfg, nil
}

// LoadForCLI is Load without the HTTP-only requirements. Operator tooling
// never serves requests, so it does not need a JWT secret.
func LoadForCLI() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	databaseURL := getEnv("DATABASE_URL", "")
	defaultDriver := StoreDriverSQLite
	if databaseURL != "" {
		defaultDriver = StoreDriverPostgres
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		AppBaseURL:           strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:4200"), "/"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		PublicRateLimitRPS:   mustFloat(getEnv("PUBLIC_RATE_LIMIT_RPS", "2")),
		PublicRateLimitBurst: mustInt(getEnv("PUBLIC_RATE_LIMIT_BURST", "10")),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", defaultDriver)),
		DatabaseURL: databaseURL,
		SQLitePath:  getEnv("SQLITE_PATH", "leadbot.db"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		WorkerEmbedded:   !strings.EqualFold(getEnv("WORKER_EMBEDDED", "true"), "false"),
		TurnLockTTL:      mustDuration(getEnv("TURN_LOCK_TTL", "30s")),

		Industry:             getEnv("INDUSTRY", "realEstate"),
		BusinessProfilesPath: getEnv("BUSINESS_PROFILES_PATH", ""),
		PhoneDefaultRegion:   strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "IN")),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderNone)),
		LLMModel:       getEnv("LLM_MODEL", ""),
		LLMTimeout:     mustDuration(getEnv("LLM_TIMEOUT", "15s")),
		MoonshotAPIKey: getEnv("MOONSHOT_API_KEY", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),

		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketTranscripts: getEnv("MINIO_BUCKET_TRANSCRIPTS", "lead-transcripts"),

		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:    getEnv("SMTP_FROM_NAME", "Lead Bot"),
		SMTPFromAddress: getEnv("SMTP_FROM_ADDRESS", ""),
		SalesAlertEmail: getEnv("SALES_ALERT_EMAIL", ""),

		WhatsAppURL:      strings.TrimRight(getEnv("WHATSAPP_URL", ""), "/"),
		WhatsAppKey:      getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreDriverSQLite, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LLMProvider {
	case LLMProviderNone:
	case LLMProviderMoonshot:
		if c.MoonshotAPIKey == "" {
			return fmt.Errorf("MOONSHOT_API_KEY is required when LLM_PROVIDER is moonshot")
		}
	case LLMProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER is openai")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMTimeout <= 0 || c.LLMTimeout > MaxLLMTimeout {
		c.LLMTimeout = MaxLLMTimeout
	}
	if c.TurnLockTTL <= 0 {
		c.TurnLockTTL = 30 * time.Second
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}
