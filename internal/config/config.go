package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Defaults applied by SetDefaults
const (
	DefaultPort            = 3001
	DefaultBasePath        = "."
	DefaultBuildPath       = "./build/src/tests/with-sign"
	DefaultInterpreter     = "node"
	DefaultBuildCommand    = "npm run build"
	DefaultTimeout         = 30 * time.Minute
	DefaultKillGrace       = 5 * time.Second
	DefaultMaxRetained     = 1000
	DefaultMaxAge          = 24 * time.Hour
	DefaultSweepInterval   = time.Minute
	DefaultBufferSize      = 64
	DefaultShutdownTimeout = 30 * time.Second
)

// DefaultInterpreterArgs are passed to the interpreter before the artifact
var DefaultInterpreterArgs = []string{
	"--experimental-vm-modules",
	"--experimental-wasm-modules",
	"--experimental-wasm-threads",
}

// Environment variables read by ApplyEnv
const (
	EnvBasePath     = "VERIFIER_BASE_PATH"
	EnvBuildPath    = "VERIFIER_BUILD_PATH"
	EnvTimeout      = "VERIFIER_TIMEOUT"
	EnvAsyncEnabled = "ENABLE_ASYNC_JOBS"
	EnvServerPort   = "SERVER_PORT"
	EnvAPIKey       = "VERIFIER_API_KEY"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Executor   ExecutorConfig   `yaml:"executor"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Notify     NotifyConfig     `yaml:"notify"`
	Database   DatabaseConfig   `yaml:"database"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	Logging    LoggingConfig    `yaml:"logging"`
	App        AppConfig        `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigin      string        `yaml:"cors_origin"`
	APIKey          string        `yaml:"api_key"` // empty disables tool endpoint auth
}

// ExecutorConfig holds settings for running verification tools
type ExecutorConfig struct {
	BasePath        string        `yaml:"base_path"`
	BuildPath       string        `yaml:"build_path"`
	Interpreter     string        `yaml:"interpreter"`
	InterpreterArgs []string      `yaml:"interpreter_args"`
	BuildCommand    string        `yaml:"build_command"`
	Timeout         time.Duration `yaml:"timeout"`
	KillGrace       time.Duration `yaml:"kill_grace"`
	ExtraEnv        []string      `yaml:"extra_env"`
	ExpectedSources []string      `yaml:"expected_sources"`
}

// ClassifierConfig points at an optional marker table
type ClassifierConfig struct {
	MarkersFile string `yaml:"markers_file"`
}

// JobsConfig holds background job settings
type JobsConfig struct {
	AsyncEnabled    *bool         `yaml:"async_enabled"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	QueueSize       int           `yaml:"queue_size"`
	MaxRetained     int           `yaml:"max_retained"`
	MaxAge          time.Duration `yaml:"max_age"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NotifyConfig holds notification hub settings
type NotifyConfig struct {
	BufferSize int    `yaml:"buffer_size"`
	ServerName string `yaml:"server_name"`
}

// DatabaseConfig holds PostgreSQL connection configuration for the job archive
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds settings for forwarding job updates to RabbitMQ
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration. An empty name skips the
// queue declaration.
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
	TimeFormat   string `yaml:"time_format"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ApplyEnv overrides file settings from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBasePath); ok && v != "" {
		c.Executor.BasePath = v
	}

	if v, ok := lookup(EnvBuildPath); ok && v != "" {
		c.Executor.BuildPath = v
	}

	if v, ok := lookup(EnvTimeout); ok && v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Executor.Timeout = time.Duration(ms) * time.Millisecond
	}

	if v, ok := lookup(EnvAsyncEnabled); ok && v != "" {
		enabled := v != "false"
		c.Jobs.AsyncEnabled = &enabled
	}

	if v, ok := lookup(EnvServerPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvServerPort, err)
		}
		c.Server.Port = port
	}

	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Server.APIKey = v
	}

	return nil
}

// SetDefaults fills every unset field with its default
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Executor.BasePath == "" {
		c.Executor.BasePath = DefaultBasePath
	}
	if c.Executor.BuildPath == "" {
		c.Executor.BuildPath = DefaultBuildPath
	}
	if c.Executor.Interpreter == "" {
		c.Executor.Interpreter = DefaultInterpreter
		if c.Executor.InterpreterArgs == nil {
			c.Executor.InterpreterArgs = append([]string(nil), DefaultInterpreterArgs...)
		}
	}
	if c.Executor.BuildCommand == "" {
		c.Executor.BuildCommand = DefaultBuildCommand
	}
	if c.Executor.Timeout == 0 {
		c.Executor.Timeout = DefaultTimeout
	}
	if c.Executor.KillGrace == 0 {
		c.Executor.KillGrace = DefaultKillGrace
	}

	if c.Jobs.AsyncEnabled == nil {
		enabled := true
		c.Jobs.AsyncEnabled = &enabled
	}
	if c.Jobs.MaxRetained == 0 {
		c.Jobs.MaxRetained = DefaultMaxRetained
	}
	if c.Jobs.MaxAge == 0 {
		c.Jobs.MaxAge = DefaultMaxAge
	}
	if c.Jobs.SweepInterval == 0 {
		c.Jobs.SweepInterval = DefaultSweepInterval
	}
	if c.Jobs.ShutdownTimeout == 0 {
		c.Jobs.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Notify.BufferSize == 0 {
		c.Notify.BufferSize = DefaultBufferSize
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Executor.BasePath == "" {
		return fmt.Errorf("executor base_path is required")
	}

	if c.Executor.Timeout <= 0 {
		return fmt.Errorf("executor timeout must be greater than 0")
	}

	// A sync execute holds its response until the tool finishes.
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Executor.Timeout {
		return fmt.Errorf("server write_timeout (%s) must exceed executor timeout (%s)", c.Server.WriteTimeout, c.Executor.Timeout)
	}

	if c.Executor.KillGrace < 0 {
		return fmt.Errorf("executor kill_grace must not be negative")
	}

	if c.Jobs.MaxConcurrent < 0 {
		return fmt.Errorf("jobs max_concurrent must not be negative")
	}

	if c.Jobs.QueueSize < 0 {
		return fmt.Errorf("jobs queue_size must not be negative")
	}

	if c.Jobs.MaxRetained < 0 {
		return fmt.Errorf("jobs max_retained must not be negative")
	}

	if c.Jobs.MaxAge < 0 {
		return fmt.Errorf("jobs max_age must not be negative")
	}

	if c.Jobs.MaxAge > 0 && c.Jobs.SweepInterval <= 0 {
		return fmt.Errorf("jobs sweep_interval must be greater than 0 when max_age is set")
	}

	if c.Notify.BufferSize < 0 {
		return fmt.Errorf("notify buffer_size must not be negative")
	}

	if c.Database.Enabled {
		if err := c.validateDatabase(); err != nil {
			return err
		}
	}

	if c.RabbitMQ.Enabled {
		if err := c.validateRabbitMQ(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	return nil
}

// AsyncJobsEnabled reports whether background submission is allowed
func (c *Config) AsyncJobsEnabled() bool {
	return c.Jobs.AsyncEnabled == nil || *c.Jobs.AsyncEnabled
}

// BuildCommandArgs splits the build command into argv form
func (c *Config) BuildCommandArgs() []string {
	return strings.Fields(c.Executor.BuildCommand)
}
