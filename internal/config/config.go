package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"    validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// SSEPingIntervalSeconds is how often the event stream emits keep-alive
	// pings to held-open connections.
	SSEPingIntervalSeconds int `mapstructure:"sse_ping_interval_seconds" validate:"gte=1"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// TokenLifetimeMinutes is the access token validity window.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// RedisConfig contains the pub/sub and recovery cache settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"     validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       validate:"gte=0"`

	// EventTTLSeconds is the recovery cache expiry for quiz generation
	// events; refreshed on every publish.
	EventTTLSeconds int `mapstructure:"event_ttl_seconds" validate:"gte=1"`
}

// StorageConfig contains the object store settings for staged uploads.
type StorageConfig struct {
	Bucket string `mapstructure:"bucket" validate:"required"`

	// CredentialsFile optionally points at a service account key; when empty
	// the client falls back to application default credentials.
	CredentialsFile string `mapstructure:"credentials_file"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`

	// ModelName is the primary generation model; FallbackModelName is used
	// for exactly one retry when the primary reports quota exhaustion.
	ModelName          string `mapstructure:"model_name"          validate:"required"`
	FallbackModelName  string `mapstructure:"fallback_model_name" validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"required"`
}
