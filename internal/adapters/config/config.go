package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"tradingagents/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	AI            AIConfig
	Engine        EngineConfig
	Memory        MemoryConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"tradingagents"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`

	// MetricsAddr, when set (e.g. ":9090"), exposes Prometheus metrics
	// for the duration of the run.
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// LogsDir is recorded on each run row so operators can locate any
	// out-of-band artifacts for that run.
	LogsDir string `envconfig:"LOGS_DIR"`
}

// PostgresConfig is optional: an empty host disables persistence and the
// engine still returns decisions.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"tradingagents"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

// Enabled reports whether a database was configured at all.
func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig is optional; when set, provider rate limiting is coordinated
// across processes instead of per-process.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig is optional; when set, completed decisions are published as
// events.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"tradingagents"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// AIConfig holds provider credentials and the model allow-list.
type AIConfig struct {
	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	GrokKey       string `envconfig:"GROK_API_KEY"`
	GrokBaseURL   string `envconfig:"GROK_BASE_URL" default:"https://api.x.ai/v1"`
	GeminiKey     string `envconfig:"GEMINI_API_KEY"`

	DefaultModel string `envconfig:"DEFAULT_MODEL" default:"gpt-4o-mini"`

	// Extra models admitted on top of the built-in per-provider defaults.
	AllowedModels []string `envconfig:"ALLOWED_MODELS"`

	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// Requests per minute per provider; 0 disables limiting.
	RateLimitPerMinute int `envconfig:"AI_RATE_LIMIT_PER_MINUTE" default:"0"`

	MockMode     bool          `envconfig:"MOCK_MODE" default:"false"`
	MockFixture  string        `envconfig:"MOCK_FIXTURE"`
	MockDuration time.Duration `envconfig:"MOCK_DURATION" default:"20s"`
}

// EngineConfig controls the debate protocol and dispatch behavior.
type EngineConfig struct {
	InvestDebateRounds int           `envconfig:"INVEST_DEBATE_ROUNDS" default:"1"`
	RiskDebateRounds   int           `envconfig:"RISK_DEBATE_ROUNDS" default:"1"`
	MaxToolSteps       int           `envconfig:"MAX_TOOL_STEPS" default:"3"`
	DispatchTimeout    time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"10m"`
	RetryAttempts      int           `envconfig:"DISPATCH_RETRY_ATTEMPTS" default:"2"`
	Temperature        float64       `envconfig:"MODEL_TEMPERATURE" default:"0.7"`
	MaxTokens          int           `envconfig:"MODEL_MAX_TOKENS" default:"4096"`
}

// MemoryConfig controls retrieval of past persona recommendations.
type MemoryConfig struct {
	WindowDays int `envconfig:"PAST_RESULTS_WINDOW_DAYS" default:"90"`
	MaxEntries int `envconfig:"PAST_RESULTS_MAX_ENTRIES" default:"2"`
}

// Window converts the configured day span into a duration; zero disables the
// age filter.
func (c MemoryConfig) Window() time.Duration {
	if c.WindowDays <= 0 {
		return 0
	}
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.InvestDebateRounds < 1 {
		return errors.Wrapf(errors.ErrConfig, "INVEST_DEBATE_ROUNDS must be >= 1, got %d", c.Engine.InvestDebateRounds)
	}
	if c.Engine.RiskDebateRounds < 1 {
		return errors.Wrapf(errors.ErrConfig, "RISK_DEBATE_ROUNDS must be >= 1, got %d", c.Engine.RiskDebateRounds)
	}
	if c.AI.MockMode && c.AI.MockDuration < time.Second {
		c.AI.MockDuration = time.Second
	}
	return nil
}
