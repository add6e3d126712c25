package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/api/handler"
	"github.com/cuongbtq/verifier-gateway/internal/api/router"
	"github.com/cuongbtq/verifier-gateway/internal/classifier"
	"github.com/cuongbtq/verifier-gateway/internal/config"
	"github.com/cuongbtq/verifier-gateway/internal/executor"
	"github.com/cuongbtq/verifier-gateway/internal/jobs"
	"github.com/cuongbtq/verifier-gateway/internal/jobs/storage"
	"github.com/cuongbtq/verifier-gateway/internal/notify"
	"github.com/cuongbtq/verifier-gateway/internal/runner"
	"github.com/cuongbtq/verifier-gateway/internal/tools"
	"github.com/cuongbtq/verifier-gateway/shared/logger"
	"github.com/cuongbtq/verifier-gateway/shared/postgresql"
	"github.com/cuongbtq/verifier-gateway/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const forwarderDrainTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("GATEWAY_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/gateway-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting verifier gateway",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	registry := tools.DefaultRegistry()

	exec, err := initExecutor(cfg, registry, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize executor: %w", err)
	}

	health := exec.HealthCheck(context.Background())
	appLogger.Info("Executor ready",
		slog.String("base_path", health.BasePath),
		slog.Bool("reachable", health.Reachable),
		slog.Int("artifacts_found", health.ArtifactsFound),
		slog.Int("total_expected", health.TotalExpected),
		slog.Duration("timeout", exec.Timeout()),
	)

	hub := notify.NewHub(&notify.HubConfig{
		Logger:     appLogger.Logger,
		BufferSize: cfg.Notify.BufferSize,
		ServerName: cfg.Notify.ServerName,
	})

	// Optional job archive
	var (
		dbClient *postgresql.Client
		archiver jobs.Archiver
	)
	if cfg.Database.Enabled {
		dbClient, err = initPostgreSQL(&cfg.Database, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbClient.Close()

		archive := storage.NewStorage(dbClient.GetDB(), appLogger.Logger)
		if err := archive.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("failed to prepare job archive: %w", err)
		}
		archiver = archive

		appLogger.Info("Job archive enabled")
	}

	// Optional forwarding of job updates to RabbitMQ
	var forwarder *notify.Forwarder
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()

		forwarder = notify.NewForwarder(&notify.ForwarderConfig{
			Logger:    appLogger.Logger,
			Hub:       hub,
			Publisher: rabbitClient,
		})
		go forwarder.Start(context.Background())

		appLogger.Info("RabbitMQ forwarding enabled",
			slog.String("exchange", cfg.RabbitMQ.Exchange.Name),
		)
	}

	manager := jobs.NewManager(&jobs.Config{
		Logger:        appLogger.Logger,
		Executor:      exec,
		Publisher:     hub,
		Archiver:      archiver,
		Tools:         registry,
		MaxConcurrent: cfg.Jobs.MaxConcurrent,
		QueueSize:     cfg.Jobs.QueueSize,
		MaxRetained:   cfg.Jobs.MaxRetained,
		MaxAge:        cfg.Jobs.MaxAge,
		SweepInterval: cfg.Jobs.SweepInterval,
	})
	manager.Start()

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, exec, manager, hub, archiver != nil)

	// Request contexts end when shutdown begins so event streams let go
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
		slog.Bool("async_jobs", cfg.AsyncJobsEnabled()),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		runErr = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
	}

	jobsCtx, cancelJobs := context.WithTimeout(context.Background(), cfg.Jobs.ShutdownTimeout)
	defer cancelJobs()

	if err := manager.Stop(jobsCtx); err != nil {
		appLogger.Error("Job manager forced to stop", slog.Any("error", err))
	}

	hub.Close()
	if forwarder != nil {
		select {
		case <-forwarder.Done():
		case <-time.After(forwarderDrainTimeout):
			appLogger.Warn("Job update forwarder did not stop in time")
		}
	}

	appLogger.Info("Server shutdown complete")
	return runErr
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   timeFormat,
	})
}

// initExecutor wires the classifier and process runner into a tool executor
func initExecutor(cfg *config.Config, registry *tools.Registry, logger *slog.Logger) (*executor.Executor, error) {
	table := classifier.DefaultTable()
	if cfg.Classifier.MarkersFile != "" {
		loaded, err := classifier.LoadTable(cfg.Classifier.MarkersFile)
		if err != nil {
			return nil, err
		}
		table = loaded
		logger.Info("Classifier markers loaded", slog.String("file", cfg.Classifier.MarkersFile))
	}

	procRunner := runner.New(&runner.Config{
		Logger:     logger,
		Classifier: classifier.New(table),
		KillGrace:  cfg.Executor.KillGrace,
	})

	return executor.New(&executor.Config{
		BasePath:        cfg.Executor.BasePath,
		BuildPath:       cfg.Executor.BuildPath,
		Interpreter:     cfg.Executor.Interpreter,
		InterpreterArgs: cfg.Executor.InterpreterArgs,
		BuildCommand:    cfg.BuildCommandArgs(),
		Timeout:         cfg.Executor.Timeout,
		ExtraEnv:        cfg.Executor.ExtraEnv,
		ExpectedSources: cfg.Executor.ExpectedSources,
		Logger:          logger,
		Registry:        registry,
		Runner:          procRunner,
	}), nil
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(context.Background(), dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ publisher
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, exec *executor.Executor, manager *jobs.Manager, hub *notify.Hub, archiveOn bool) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(&handler.Dependencies{
		Logger:       logger,
		Executor:     exec,
		Jobs:         manager,
		Events:       hub,
		AsyncEnabled: cfg.AsyncJobsEnabled(),
		ArchiveOn:    archiveOn,
		ServerName:   hub.ServerName(),
		Version:      cfg.App.Version,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		CORSOrigin:   cfg.Server.CORSOrigin,
	})
}
