package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownTool is returned when a tool identifier is not registered
	ErrUnknownTool = errors.New("unknown tool")

	// ErrJobNotFound is returned when a job cannot be found in the job table or archive
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists is returned when a client-supplied job id is already in use
	ErrJobExists = errors.New("job already exists")

	// ErrQueueFull is returned when the pending queue has no room for another job
	ErrQueueFull = errors.New("job queue is full")

	// ErrAsyncDisabled is returned when async submission is turned off
	ErrAsyncDisabled = errors.New("async jobs are disabled")

	// ErrManagerStopped is returned when submitting to a stopped job manager
	ErrManagerStopped = errors.New("job manager stopped")
)

// InvalidToolError reports an unregistered tool identifier together with the known ones
type InvalidToolError struct {
	Tool  string
	Known []string
}

func (e *InvalidToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s. Available tools: %s", e.Tool, strings.Join(e.Known, ", "))
}

func (e *InvalidToolError) Unwrap() error {
	return ErrUnknownTool
}

// SpawnError wraps an OS failure to start the external process
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when the process outlives its allotted time
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("script execution timeout after %dms", e.Timeout.Milliseconds())
}

// ExecutionError is returned when the process exits with a nonzero code
type ExecutionError struct {
	ExitCode int
	Output   string // stderr, or stdout when stderr is empty
}

func (e *ExecutionError) Error() string {
	out := e.Output
	if out == "" {
		out = "No output"
	}
	return fmt.Sprintf("script failed with exit code %d: %s", e.ExitCode, out)
}

// ArtifactMissingError is returned when the compiled program is absent after a build attempt
type ArtifactMissingError struct {
	Path     string
	BuildErr error
}

func (e *ArtifactMissingError) Error() string {
	if e.BuildErr != nil {
		return fmt.Sprintf("compiled artifact not found: %s (build failed: %v)", e.Path, e.BuildErr)
	}
	return fmt.Sprintf("build completed but compiled artifact still not found: %s", e.Path)
}

func (e *ArtifactMissingError) Unwrap() error {
	return e.BuildErr
}
