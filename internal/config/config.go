package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Project  ProjectConfig  `mapstructure:"project"`
	Budget   BudgetConfig   `mapstructure:"budget"`
	Estimate EstimateConfig `mapstructure:"estimate"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdown time.Duration `mapstructure:"graceful_shutdown"`
}

type DatabaseConfig struct {
	// Path to the single-file SQLite database.
	Path         string        `mapstructure:"path"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_connections"`
	MaxIdleConns int           `mapstructure:"max_idle_connections"`
}

type ProjectConfig struct {
	// DefaultID is charged when a request carries neither the
	// X-Tokencap-Project-Id header nor a project_id query parameter.
	DefaultID string `mapstructure:"default_id"`
}

type BudgetConfig struct {
	// WarnThreshold is the spent/limit ratio above which admissions
	// carry a warning advisory. Range (0,1].
	WarnThreshold float64 `mapstructure:"warn_threshold"`
}

type EstimateConfig struct {
	// DefaultMaxTokens is assumed when a request carries no max_tokens
	// and the model has no documented default output cap.
	DefaultMaxTokens int `mapstructure:"default_max_tokens"`
}

type UpstreamConfig struct {
	OpenAI    ProviderConfig `mapstructure:"openai"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// RequestTimeout caps buffered (non-streaming) upstream calls.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// IdleTimeout bounds the wait for upstream response headers and
	// between stream chunks.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type ProviderConfig struct {
	// APIKey is the server-side default credential, used when the
	// client request carries none.
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.AddConfigPath(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/tokencap")
	}

	setDefaults()

	viper.AutomaticEnv()
	bindEnvVars()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.Budget.WarnThreshold <= 0 || config.Budget.WarnThreshold > 1 {
		return nil, fmt.Errorf("budget.warn_threshold must be in (0,1], got %v", config.Budget.WarnThreshold)
	}
	if config.Estimate.DefaultMaxTokens <= 0 {
		return nil, fmt.Errorf("estimate.default_max_tokens must be positive, got %d", config.Estimate.DefaultMaxTokens)
	}

	cfg = &config
	return cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "300s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.graceful_shutdown", "30s")

	// Database defaults
	viper.SetDefault("database.path", "./tokencap.db")
	viper.SetDefault("database.busy_timeout", "5s")
	viper.SetDefault("database.max_open_connections", 1)
	viper.SetDefault("database.max_idle_connections", 1)

	// Project defaults
	viper.SetDefault("project.default_id", "default")

	// Budget defaults
	viper.SetDefault("budget.warn_threshold", 0.8)

	// Estimate defaults
	viper.SetDefault("estimate.default_max_tokens", 4096)

	// Upstream defaults
	viper.SetDefault("upstream.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("upstream.anthropic.base_url", "https://api.anthropic.com/v1")
	viper.SetDefault("upstream.connect_timeout", "30s")
	viper.SetDefault("upstream.request_timeout", "5m")
	viper.SetDefault("upstream.idle_timeout", "2m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.output_path", "")

	// CORS defaults
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 86400)
}

func bindEnvVars() {
	// Server
	viper.BindEnv("server.host", "TOKENCAP_HOST")
	viper.BindEnv("server.port", "TOKENCAP_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	viper.BindEnv("server.graceful_shutdown", "SERVER_GRACEFUL_SHUTDOWN")

	// Database
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("database.busy_timeout", "DATABASE_BUSY_TIMEOUT")

	// Project
	viper.BindEnv("project.default_id", "TOKENCAP_DEFAULT_PROJECT")

	// Budget
	viper.BindEnv("budget.warn_threshold", "BUDGET_WARN_THRESHOLD")

	// Estimate
	viper.BindEnv("estimate.default_max_tokens", "ESTIMATE_DEFAULT_MAX_TOKENS")

	// Upstream credentials
	viper.BindEnv("upstream.openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("upstream.openai.base_url", "OPENAI_BASE_URL")
	viper.BindEnv("upstream.anthropic.api_key", "ANTHROPIC_API_KEY")
	viper.BindEnv("upstream.anthropic.base_url", "ANTHROPIC_BASE_URL")

	// Logging
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("logging.format", "LOG_FORMAT")

	// CORS
	viper.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("cors.allowed_methods", "CORS_ALLOWED_METHODS")
	viper.BindEnv("cors.allowed_headers", "CORS_ALLOWED_HEADERS")
}

func Get() *Config {
	return cfg
}

// ListenAddr joins host and port for http.Server.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
