package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the triage service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Quota         QuotaConfig         `mapstructure:"quota"`
	Limits        LimitsConfig        `mapstructure:"limits"`
	Providers     ProviderConfig      `mapstructure:"providers"`
	Classifier    ClassifierConfig    `mapstructure:"classifier"`
	Tickets       TicketsConfig       `mapstructure:"tickets"`
	Retention     RetentionConfig     `mapstructure:"retention"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Reporting     ReportingConfig     `mapstructure:"reporting"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// QuotaConfig governs the per-key daily ledger.
type QuotaConfig struct {
	DefaultDailyLimit int `mapstructure:"default_daily_limit"`
}

// LimitsConfig governs the per-client-IP request throttle on the public API.
type LimitsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type ProviderConfig struct {
	OpenAIKey      string `mapstructure:"openai_key"`
	OpenAIModel    string `mapstructure:"openai_model"`
	OpenAIBaseURL  string `mapstructure:"openai_base_url"`
	AnthropicKey   string `mapstructure:"anthropic_key"`
	AnthropicModel string `mapstructure:"anthropic_model"`
	AnthropicURL   string `mapstructure:"anthropic_url"`
}

// ClassifierConfig controls the LLM classification attempts.
type ClassifierConfig struct {
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
}

type TicketsConfig struct {
	MinTextChars int `mapstructure:"min_text_chars"`
	MaxTextChars int `mapstructure:"max_text_chars"`
	RecentLimit  int `mapstructure:"recent_limit"`
}

type RetentionConfig struct {
	TicketDays    int           `mapstructure:"ticket_days"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type StripeConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

type ReportingConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("TRIAGE_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("triage")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and fills conservative fallbacks.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URL == "" {
		missing = append(missing, "TRIAGE_DATABASE_URL")
	}
	if c.Admin.APIKey == "" {
		missing = append(missing, "TRIAGE_ADMIN_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Database.RunMigrations && c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir must be provided when run_migrations is true")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}
	if c.Limits.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis.url must be provided when limits.enabled is true")
	}
	if c.Limits.RequestsPerMinute <= 0 {
		return fmt.Errorf("limits.requests_per_minute must be > 0")
	}

	if c.Quota.DefaultDailyLimit <= 0 {
		return fmt.Errorf("quota.default_daily_limit must be > 0")
	}

	if c.Classifier.AttemptTimeout <= 0 {
		return fmt.Errorf("classifier.attempt_timeout must be > 0")
	}
	if c.Classifier.MaxTokens <= 0 {
		return fmt.Errorf("classifier.max_tokens must be > 0")
	}
	if c.Classifier.Temperature < 0 || c.Classifier.Temperature > 2 {
		return fmt.Errorf("classifier.temperature must be between 0 and 2")
	}

	if c.Tickets.MinTextChars <= 0 {
		return fmt.Errorf("tickets.min_text_chars must be > 0")
	}
	if c.Tickets.MaxTextChars <= c.Tickets.MinTextChars {
		return fmt.Errorf("tickets.max_text_chars must exceed tickets.min_text_chars")
	}
	if c.Tickets.RecentLimit <= 0 {
		return fmt.Errorf("tickets.recent_limit must be > 0")
	}

	if c.Retention.TicketDays < 0 {
		return fmt.Errorf("retention.ticket_days must be >= 0")
	}
	if c.Retention.TicketDays > 0 && c.Retention.SweepInterval <= 0 {
		c.Retention.SweepInterval = time.Hour
	}

	reportingTZ := strings.TrimSpace(c.Reporting.Timezone)
	if reportingTZ == "" {
		reportingTZ = "UTC"
	}
	if _, err := time.LoadLocation(reportingTZ); err != nil {
		return fmt.Errorf("invalid reporting.timezone: %w", err)
	}
	c.Reporting.Timezone = reportingTZ

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 1)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("quota.default_daily_limit", 100)

	v.SetDefault("limits.enabled", false)
	v.SetDefault("limits.requests_per_minute", 10)

	v.SetDefault("providers.openai_model", "gpt-4o-mini")
	v.SetDefault("providers.anthropic_model", "claude-3-5-haiku-latest")

	v.SetDefault("classifier.attempt_timeout", "10s")
	v.SetDefault("classifier.max_tokens", 200)
	v.SetDefault("classifier.temperature", 0.1)

	v.SetDefault("tickets.min_text_chars", 10)
	v.SetDefault("tickets.max_text_chars", 10000)
	v.SetDefault("tickets.recent_limit", 10)

	v.SetDefault("retention.ticket_days", 90)
	v.SetDefault("retention.sweep_interval", "1h")

	v.SetDefault("observability.enable_otlp", true)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")

	v.SetDefault("reporting.timezone", "UTC")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
