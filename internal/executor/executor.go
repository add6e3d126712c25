package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/cuongbtq/verifier-gateway/internal/runner"
	"github.com/cuongbtq/verifier-gateway/internal/tools"
)

const (
	// DefaultTimeout bounds a single tool run
	DefaultTimeout = 30 * time.Minute

	// DefaultBuildPath is where compiled artifacts live, relative to the base path
	DefaultBuildPath = "./build/src/tests/with-sign"

	buildKey = "build"
)

// DefaultExpectedSources are the source files the health check looks for
var DefaultExpectedSources = []string{
	"src/tests/with-sign/GLEIFOptimMultiCompanyVerificationTestWithSign.ts",
	"src/tests/with-sign/CorporateRegistrationOptimMultiCompanyVerificationTestWithSign.ts",
	"src/tests/with-sign/EXIMOptimMultiCompanyVerificationTestWithSign.ts",
}

// ProcessRunner runs one external process to completion
type ProcessRunner interface {
	Run(ctx context.Context, c runner.Command, timeout time.Duration) (*domain.ExecutionOutcome, error)
}

// Config holds executor configuration
type Config struct {
	BasePath        string
	BuildPath       string
	Interpreter     string // empty runs the artifact directly
	InterpreterArgs []string
	BuildCommand    []string // empty disables the build fallback
	Timeout         time.Duration
	ExtraEnv        []string
	ExpectedSources []string
	Logger          *slog.Logger
	Registry        *tools.Registry
	Runner          ProcessRunner
}

// Health is the advisory status of the executor's working tree
type Health struct {
	Reachable       bool   `json:"reachable"`
	ArtifactsFound  int    `json:"artifactsFound"`
	TotalExpected   int    `json:"totalExpected"`
	BasePath        string `json:"basePath"`
	BuildPath       string `json:"buildPath"`
	BuildPathExists bool   `json:"buildPathExists"`
	Mode            string `json:"mode"`
}

// Executor resolves tool names to compiled artifacts and runs them
type Executor struct {
	basePath        string
	buildPath       string
	interpreter     string
	interpreterArgs []string
	buildCommand    []string
	timeout         time.Duration
	env             []string
	expectedSources []string
	logger          *slog.Logger
	registry        *tools.Registry
	runner          ProcessRunner
	builds          singleflight.Group
}

// New creates a new Executor instance
func New(cfg *Config) *Executor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	buildPath := cfg.BuildPath
	if buildPath == "" {
		buildPath = DefaultBuildPath
	}

	expected := cfg.ExpectedSources
	if expected == nil {
		expected = DefaultExpectedSources
	}

	registry := cfg.Registry
	if registry == nil {
		registry = tools.DefaultRegistry()
	}

	env := append(os.Environ(), "NODE_ENV=production")
	env = append(env, cfg.ExtraEnv...)

	return &Executor{
		basePath:        cfg.BasePath,
		buildPath:       buildPath,
		interpreter:     cfg.Interpreter,
		interpreterArgs: cfg.InterpreterArgs,
		buildCommand:    cfg.BuildCommand,
		timeout:         timeout,
		env:             env,
		expectedSources: expected,
		logger:          cfg.Logger,
		registry:        registry,
		runner:          cfg.Runner,
	}
}

// ListTools returns the registered tool identifiers in registration order
func (e *Executor) ListTools() []string {
	return e.registry.Names()
}

// Timeout returns the per-run timeout
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs toolName with params. It never returns an error; every
// failure is reported as a Result with Success=false.
func (e *Executor) Execute(ctx context.Context, toolName string, params map[string]any) domain.Result {
	start := time.Now()

	logger := e.logger.With(slog.String("tool", toolName))
	logger.Info("Executing tool")

	outcome, err := e.run(ctx, toolName, params)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("Tool execution failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed),
		)
		return domain.Result{
			Success:         false,
			Result:          failureReport(err),
			ExecutionTimeMs: elapsed.Milliseconds(),
			Error:           err.Error(),
			Err:             err,
		}
	}

	logger.Info("Tool execution completed",
		slog.String("verdict", string(outcome.Verdict.Status)),
		slog.Duration("elapsed", elapsed),
	)

	return domain.Result{
		Success:         true,
		Result:          successReport(outcome),
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
}

func (e *Executor) run(ctx context.Context, toolName string, params map[string]any) (*domain.ExecutionOutcome, error) {
	descriptor, err := e.registry.Lookup(toolName)
	if err != nil {
		return nil, err
	}

	artifact, err := e.resolveArtifact(ctx, descriptor.Artifact)
	if err != nil {
		return nil, err
	}

	args, err := e.registry.BuildArgs(toolName, params)
	if err != nil {
		return nil, err
	}

	return e.runner.Run(ctx, e.command(toolName, artifact, args), e.timeout)
}

func (e *Executor) command(toolName, artifact string, args []string) runner.Command {
	if e.interpreter == "" {
		return runner.Command{Tool: toolName, Path: artifact, Args: args, Dir: e.basePath, Env: e.env}
	}

	argv := make([]string, 0, len(e.interpreterArgs)+1+len(args))
	argv = append(argv, e.interpreterArgs...)
	argv = append(argv, artifact)
	argv = append(argv, args...)

	return runner.Command{Tool: toolName, Path: e.interpreter, Args: argv, Dir: e.basePath, Env: e.env}
}

// resolveArtifact returns the artifact path, building once if it is missing
func (e *Executor) resolveArtifact(ctx context.Context, name string) (string, error) {
	path := filepath.Join(e.basePath, e.buildPath, name)
	if fileExists(path) {
		return path, nil
	}

	e.logger.Warn("Compiled artifact not found, building project",
		slog.String("artifact", path),
	)

	buildErr := e.build(ctx)
	if buildErr != nil {
		return "", &domain.ArtifactMissingError{Path: path, BuildErr: buildErr}
	}
	if !fileExists(path) {
		return "", &domain.ArtifactMissingError{Path: path}
	}

	return path, nil
}

// build runs the build command. Concurrent callers share one build.
func (e *Executor) build(ctx context.Context) error {
	if len(e.buildCommand) == 0 {
		return errors.New("no build command configured")
	}

	_, err, shared := e.builds.Do(buildKey, func() (any, error) {
		e.logger.Info("Building project",
			slog.String("command", strings.Join(e.buildCommand, " ")),
			slog.String("dir", e.basePath),
		)

		cmd := runner.Command{
			Tool: buildKey,
			Path: e.buildCommand[0],
			Args: e.buildCommand[1:],
			Dir:  e.basePath,
			Env:  e.env,
		}
		if _, err := e.runner.Run(context.WithoutCancel(ctx), cmd, 0); err != nil {
			return nil, fmt.Errorf("failed to build project: %w", err)
		}

		e.logger.Info("Project build completed")
		return nil, nil
	})
	if shared {
		e.logger.Debug("Joined in-flight build")
	}

	return err
}

// HealthCheck reports whether the base path is reachable and how many
// expected sources exist. It does not gate execution.
func (e *Executor) HealthCheck(_ context.Context) Health {
	h := Health{
		TotalExpected: len(e.expectedSources),
		BasePath:      e.basePath,
		BuildPath:     filepath.Join(e.basePath, e.buildPath),
		Mode:          domain.ExecutionModeIntegrated,
	}

	info, err := os.Stat(e.basePath)
	if err != nil || !info.IsDir() {
		e.logger.Warn("Base path is not reachable",
			slog.String("base_path", e.basePath),
		)
		return h
	}
	h.Reachable = true

	if info, err := os.Stat(h.BuildPath); err == nil && info.IsDir() {
		h.BuildPathExists = true
	}

	for _, src := range e.expectedSources {
		if fileExists(filepath.Join(e.basePath, src)) {
			h.ArtifactsFound++
		}
	}

	return h
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
