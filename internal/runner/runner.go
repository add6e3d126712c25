package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

// DefaultKillGrace is how long a terminated process may take to exit before it is killed
const DefaultKillGrace = 5 * time.Second

// Classifier turns captured output into a verdict
type Classifier interface {
	Classify(tool, stdout, stderr string) domain.Verdict
}

// Command is one external process invocation
type Command struct {
	Tool string // label used for classification and logging
	Path string
	Args []string
	Dir  string
	Env  []string // nil inherits the parent environment
}

// Config holds runner configuration
type Config struct {
	Logger     *slog.Logger
	Classifier Classifier
	KillGrace  time.Duration
}

// Runner supervises external processes. Each Run spawns a fresh process;
// no retry is attempted.
type Runner struct {
	logger     *slog.Logger
	classifier Classifier
	killGrace  time.Duration
}

// New creates a new Runner instance
func New(cfg *Config) *Runner {
	killGrace := cfg.KillGrace
	if killGrace <= 0 {
		killGrace = DefaultKillGrace
	}

	return &Runner{
		logger:     cfg.Logger,
		classifier: cfg.Classifier,
		killGrace:  killGrace,
	}
}

// Run starts c, waits for it and classifies its output. A non-positive
// timeout disables the deadline. Errors are *domain.SpawnError,
// *domain.TimeoutError, *domain.ExecutionError, or a wrapped context error
// when ctx itself is canceled.
func (r *Runner) Run(ctx context.Context, c Command, timeout time.Duration) (*domain.ExecutionOutcome, error) {
	runCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	logger := r.logger.With(
		slog.String("tool", c.Tool),
		slog.String("path", c.Path),
	)

	cmd := exec.CommandContext(runCtx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return terminate(cmd, r.killGrace) }
	cmd.WaitDelay = r.killGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = r.capture(runCtx, &stdout, logger, "stdout")
	cmd.Stderr = r.capture(runCtx, &stderr, logger, "stderr")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		logger.Error("Failed to spawn process", slog.String("error", err.Error()))
		return nil, &domain.SpawnError{Path: c.Path, Err: err}
	}

	logger.Info("Process spawned",
		slog.Int("pid", cmd.Process.Pid),
		slog.Any("args", c.Args),
		slog.String("dir", c.Dir),
		slog.Duration("timeout", timeout),
	)

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitDone:
	case <-runCtx.Done():
		// An exit that raced the deadline still wins.
		select {
		case waitErr = <-waitDone:
		default:
			return nil, r.abandon(ctx, runCtx, cmd, waitDone, timeout, logger)
		}
	}
	elapsed := time.Since(start)

	outcome := &domain.ExecutionOutcome{
		ExitCode: exitCode(cmd, waitErr),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	logger.Info("Process finished",
		slog.Int("exit_code", outcome.ExitCode),
		slog.Duration("elapsed", elapsed),
		slog.Int("stdout_bytes", len(outcome.Stdout)),
		slog.Int("stderr_bytes", len(outcome.Stderr)),
	)

	if err := r.normalizeWaitError(ctx, runCtx, cmd, waitErr, timeout, outcome); err != nil {
		logger.Warn("Process did not succeed", slog.String("error", err.Error()))
		return nil, err
	}

	if r.classifier != nil {
		outcome.Verdict = r.classifier.Classify(c.Tool, outcome.Stdout, outcome.Stderr)
	}

	return outcome, nil
}

// abandon resolves a run whose deadline or parent context fired before the
// process exited. The group is already being terminated by cmd.Cancel; the
// process is reaped in the background.
func (r *Runner) abandon(parent, runCtx context.Context, cmd *exec.Cmd, waitDone <-chan error, timeout time.Duration, logger *slog.Logger) error {
	err := contextError(parent, runCtx, timeout)
	if err == nil {
		err = runCtx.Err()
	}
	logger.Warn("Process did not succeed",
		slog.Int("pid", cmd.Process.Pid),
		slog.String("error", err.Error()),
	)

	go func() {
		waitErr := <-waitDone
		logger.Debug("Abandoned process reaped",
			slog.Int("pid", cmd.Process.Pid),
			slog.Any("wait_error", waitErr),
		)
	}()

	return err
}

// contextError reports why runCtx ended: its own deadline or the parent
func contextError(parent, runCtx context.Context, timeout time.Duration) error {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return &domain.TimeoutError{Timeout: timeout}
	}
	if parent.Err() != nil {
		return fmt.Errorf("execution canceled: %w", parent.Err())
	}
	return nil
}

// normalizeWaitError maps the wait result to the runner's error taxonomy
func (r *Runner) normalizeWaitError(parent, runCtx context.Context, cmd *exec.Cmd, waitErr error, timeout time.Duration, outcome *domain.ExecutionOutcome) error {
	if waitErr == nil {
		return nil
	}

	// Exit 0 with a descendant still holding the output pipes
	if errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		return nil
	}

	if err := contextError(parent, runCtx, timeout); err != nil {
		return err
	}

	output := outcome.Stderr
	if output == "" {
		output = outcome.Stdout
	}
	return &domain.ExecutionError{ExitCode: outcome.ExitCode, Output: output}
}

func (r *Runner) capture(ctx context.Context, buf *bytes.Buffer, logger *slog.Logger, stream string) io.Writer {
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return buf
	}
	return io.MultiWriter(buf, &lineLogger{logger: logger, stream: stream})
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
