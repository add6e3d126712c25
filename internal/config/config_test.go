package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 35*time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, "/opt/verifier", cfg.Executor.BasePath)
				assert.Equal(t, 10*time.Minute, cfg.Executor.Timeout)
				assert.Equal(t, []string{"--experimental-vm-modules"}, cfg.Executor.InterpreterArgs)
				assert.Equal(t, []string{"LOG_LEVEL=debug"}, cfg.Executor.ExtraEnv)
				assert.Equal(t, "configs/gateway-service/markers.yaml", cfg.Classifier.MarkersFile)
				assert.Equal(t, 4, cfg.Jobs.MaxConcurrent)
				assert.Equal(t, 12*time.Hour, cfg.Jobs.MaxAge)
				assert.True(t, cfg.AsyncJobsEnabled())
				assert.Equal(t, "verifier-gateway-test", cfg.Notify.ServerName)
				assert.True(t, cfg.Database.Enabled)
				assert.Equal(t, "verifier_db", cfg.Database.Database)
				assert.Equal(t, "job_updates", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "verifier-gateway", cfg.App.Name)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultBasePath, cfg.Executor.BasePath)
	assert.Equal(t, DefaultBuildPath, cfg.Executor.BuildPath)
	assert.Equal(t, "node", cfg.Executor.Interpreter)
	assert.Equal(t, DefaultInterpreterArgs, cfg.Executor.InterpreterArgs)
	assert.Equal(t, 30*time.Minute, cfg.Executor.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Executor.KillGrace)
	assert.Equal(t, []string{"npm", "run", "build"}, cfg.BuildCommandArgs())
	assert.True(t, cfg.AsyncJobsEnabled())
	assert.Equal(t, 0, cfg.Jobs.MaxConcurrent)
	assert.Equal(t, 1000, cfg.Jobs.MaxRetained)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.MaxAge)
	assert.Equal(t, time.Minute, cfg.Jobs.SweepInterval)
	assert.Equal(t, 64, cfg.Notify.BufferSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())
}

func TestConfig_SetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg, err := Load("testdata/minimal.yaml")
	require.NoError(t, err)
	cfg.SetDefaults()

	assert.Equal(t, "/srv/verifier", cfg.Executor.BasePath)
	assert.False(t, cfg.AsyncJobsEnabled())
	require.NoError(t, cfg.Validate())

	custom := &Config{Executor: ExecutorConfig{Interpreter: "/bin/sh"}}
	custom.SetDefaults()
	assert.Equal(t, "/bin/sh", custom.Executor.Interpreter)
	assert.Nil(t, custom.Executor.InterpreterArgs)
}

func TestConfig_ApplyEnv(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		check     func(t *testing.T, cfg *Config)
		errString string
	}{
		{
			name: "overrides",
			env: map[string]string{
				EnvBasePath:     "/env/base",
				EnvBuildPath:    "./out",
				EnvTimeout:      "1500",
				EnvAsyncEnabled: "false",
				EnvServerPort:   "9090",
				EnvAPIKey:       "secret",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/env/base", cfg.Executor.BasePath)
				assert.Equal(t, "./out", cfg.Executor.BuildPath)
				assert.Equal(t, 1500*time.Millisecond, cfg.Executor.Timeout)
				assert.False(t, cfg.AsyncJobsEnabled())
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "secret", cfg.Server.APIKey)
			},
		},
		{
			name: "async enabled by any value but false",
			env:  map[string]string{EnvAsyncEnabled: "yes"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.AsyncJobsEnabled())
			},
		},
		{
			name: "empty values are ignored",
			env:  map[string]string{EnvBasePath: "", EnvTimeout: ""},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/opt/verifier", cfg.Executor.BasePath)
				assert.Equal(t, 10*time.Minute, cfg.Executor.Timeout)
			},
		},
		{
			name:      "invalid timeout",
			env:       map[string]string{EnvTimeout: "30m"},
			errString: "invalid VERIFIER_TIMEOUT",
		},
		{
			name:      "invalid port",
			env:       map[string]string{EnvServerPort: "http"},
			errString: "invalid SERVER_PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("testdata/valid_config.yaml")
			require.NoError(t, err)

			err = cfg.ApplyEnv(func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			})

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func validConfig() *Config {
	cfg := &Config{
		Server:   ServerConfig{Port: 8080},
		Executor: ExecutorConfig{BasePath: "/opt/verifier", Timeout: time.Minute},
		Jobs:     JobsConfig{MaxAge: time.Hour, SweepInterval: time.Minute},
		Database: DatabaseConfig{
			Enabled:  true,
			Host:     "localhost",
			Port:     5432,
			Database: "verifier_db",
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:  true,
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "job_updates"},
		},
	}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		errString string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "server port too low", mutate: func(c *Config) { c.Server.Port = 0 }, errString: "invalid server port"},
		{name: "server port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, errString: "invalid server port"},
		{name: "empty base path", mutate: func(c *Config) { c.Executor.BasePath = "" }, errString: "executor base_path is required"},
		{name: "zero timeout", mutate: func(c *Config) { c.Executor.Timeout = 0 }, errString: "executor timeout must be greater than 0"},
		{
			name:      "write timeout not above executor timeout",
			mutate:    func(c *Config) { c.Server.WriteTimeout = c.Executor.Timeout },
			errString: "write_timeout",
		},
		{
			name:   "write timeout above executor timeout",
			mutate: func(c *Config) { c.Server.WriteTimeout = c.Executor.Timeout + time.Minute },
		},
		{name: "negative kill grace", mutate: func(c *Config) { c.Executor.KillGrace = -time.Second }, errString: "kill_grace"},
		{name: "negative concurrency", mutate: func(c *Config) { c.Jobs.MaxConcurrent = -1 }, errString: "max_concurrent"},
		{name: "negative queue", mutate: func(c *Config) { c.Jobs.QueueSize = -1 }, errString: "queue_size"},
		{name: "negative retention", mutate: func(c *Config) { c.Jobs.MaxRetained = -1 }, errString: "max_retained"},
		{name: "negative max age", mutate: func(c *Config) { c.Jobs.MaxAge = -time.Hour }, errString: "max_age"},
		{name: "max age without sweep", mutate: func(c *Config) { c.Jobs.SweepInterval = 0 }, errString: "sweep_interval"},
		{name: "negative buffer", mutate: func(c *Config) { c.Notify.BufferSize = -1 }, errString: "buffer_size"},
		{name: "empty database host", mutate: func(c *Config) { c.Database.Host = "" }, errString: "database host is required"},
		{name: "invalid database port", mutate: func(c *Config) { c.Database.Port = 0 }, errString: "invalid database port"},
		{name: "empty database name", mutate: func(c *Config) { c.Database.Database = "" }, errString: "database name is required"},
		{
			name:   "database disabled skips checks",
			mutate: func(c *Config) { c.Database = DatabaseConfig{Enabled: false} },
		},
		{name: "empty rabbitmq host", mutate: func(c *Config) { c.RabbitMQ.Host = "" }, errString: "rabbitmq host is required"},
		{name: "invalid rabbitmq port", mutate: func(c *Config) { c.RabbitMQ.Port = 99999 }, errString: "invalid rabbitmq port"},
		{name: "empty exchange name", mutate: func(c *Config) { c.RabbitMQ.Exchange.Name = "" }, errString: "rabbitmq exchange name is required"},
		{
			name:   "rabbitmq disabled skips checks",
			mutate: func(c *Config) { c.RabbitMQ = RabbitMQConfig{Enabled: false} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		cfg.SetDefaults()

		require.NoError(t, cfg.Validate())
	})

	t.Run("env timeout beyond write timeout", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NoError(t, cfg.ApplyEnv(func(key string) (string, bool) {
			if key == EnvTimeout {
				return "3600000", true
			}
			return "", false
		}))
		cfg.SetDefaults()

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must exceed executor timeout")
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		cfg.SetDefaults()

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)
		cfg.SetDefaults()

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}
