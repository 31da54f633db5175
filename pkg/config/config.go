package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Abraxas-365/chatkeep/pkg/errx"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CHATKEEP_STORE_BACKEND
const EnvPrefix = "CHATKEEP"

var errRegistry = errx.NewRegistry("CONFIG")

var ErrCodeInvalid = errRegistry.Register(
	"INVALID",
	errx.TypeValidation,
	http.StatusInternalServerError,
	"Invalid configuration",
)

func errInvalid(format string, args ...any) *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Config is the full application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Store  StoreConfig  `mapstructure:"store"`
	Chat   ChatConfig   `mapstructure:"chat"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	Temperature  float64       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Backend    string         `mapstructure:"backend"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	Redis      RedisConfig    `mapstructure:"redis"`
	S3         S3Config       `mapstructure:"s3"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN renders the lib/pq connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode,
	)
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type ChatConfig struct {
	SessionID   string `mapstructure:"session_id"`
	HistoryFile string `mapstructure:"history_file"`
	LogLevel    string `mapstructure:"log_level"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendS3       = "s3"

	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", time.Duration(0))

	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.sqlite_path", "chatbot_state.db")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.user", "")
	v.SetDefault("store.postgres.password", "")
	v.SetDefault("store.postgres.name", "")
	v.SetDefault("store.postgres.ssl_mode", "disable")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "chatkeep:")
	v.SetDefault("store.s3.bucket", "")
	v.SetDefault("store.s3.prefix", "sessions/")
	v.SetDefault("store.s3.region", "us-east-1")
	v.SetDefault("store.s3.endpoint", "")

	v.SetDefault("chat.session_id", "user123")
	v.SetDefault("chat.history_file", ".chatkeep_history")
	v.SetDefault("chat.log_level", "warn")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
}

// Load reads defaults, the optional config file and environment overrides
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvPrefix + "_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path looks
// for ./chatkeep.{yaml,json,toml} and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("chatkeep")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerAPIKey(cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-sonnet-4-5",
}

// providerAPIKey falls back to the vendor's conventional variables
func providerAPIKey(provider string) string {
	var names []string
	switch provider {
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case ProviderOpenAI:
		names = []string{"OPENAI_API_KEY"}
	case ProviderAnthropic:
		names = []string{"ANTHROPIC_API_KEY"}
	}
	for _, name := range names {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// Validate checks names and required fields
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return errInvalid("unsupported llm.provider %q", c.LLM.Provider)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errInvalid("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errInvalid("store.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.User == "" || c.Store.Postgres.Name == "" {
			return errInvalid("store.postgres.user and store.postgres.name are required")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errInvalid("store.redis.addr is required for the redis backend")
		}
	case BackendS3:
		if c.Store.S3.Bucket == "" {
			return errInvalid("store.s3.bucket is required for the s3 backend")
		}
	default:
		return errInvalid("unsupported store.backend %q", c.Store.Backend)
	}

	if strings.TrimSpace(c.Chat.SessionID) == "" {
		return errInvalid("chat.session_id cannot be empty")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
