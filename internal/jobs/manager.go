package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/cuongbtq/verifier-gateway/internal/tools"
)

const archiveTimeout = 5 * time.Second

// Executor runs one tool invocation and never fails outright
type Executor interface {
	Execute(ctx context.Context, toolName string, params map[string]any) domain.Result
}

// Publisher receives a snapshot after every job transition
type Publisher interface {
	Publish(job *domain.Job)
}

// Archiver keeps terminal jobs after they leave memory
type Archiver interface {
	SaveJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
}

// ToolResolver checks that a tool is registered
type ToolResolver interface {
	Lookup(name string) (tools.Descriptor, error)
}

// Config holds job manager configuration
type Config struct {
	Logger    *slog.Logger
	Executor  Executor
	Publisher Publisher
	Archiver  Archiver     // optional
	Tools     ToolResolver // optional; unknown tools are rejected at submit when set

	MaxConcurrent int // 0 runs every job immediately
	QueueSize     int
	MaxRetained   int           // 0 keeps every job
	MaxAge        time.Duration // 0 disables the age sweep
	SweepInterval time.Duration

	NewID func() string
	Now   func() time.Time
}

// Manager owns the job table and drives each job through
// pending -> running -> completed|failed.
type Manager struct {
	logger    *slog.Logger
	executor  Executor
	publisher Publisher
	archiver  Archiver
	tools     ToolResolver

	maxRetained   int
	maxAge        time.Duration
	sweepInterval time.Duration
	newID         func() string
	now           func() time.Time

	mu      sync.Mutex
	jobs    map[string]*domain.Job
	order   []string
	stopped bool

	pool     *pool
	runCtx   context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a new Manager instance
func NewManager(cfg *Config) *Manager {
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return "job_" + uuid.NewString() }
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	runCtx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:        cfg.Logger,
		executor:      cfg.Executor,
		publisher:     cfg.Publisher,
		archiver:      cfg.Archiver,
		tools:         cfg.Tools,
		maxRetained:   cfg.MaxRetained,
		maxAge:        cfg.MaxAge,
		sweepInterval: cfg.SweepInterval,
		newID:         newID,
		now:           now,
		jobs:          make(map[string]*domain.Job),
		runCtx:        runCtx,
		cancel:        cancel,
		stopChan:      make(chan struct{}),
	}
	m.pool = newPool(cfg.Logger, cfg.MaxConcurrent, cfg.QueueSize, m.process)

	return m
}

// Start launches the worker pool and the retention janitor
func (m *Manager) Start() {
	m.logger.Info("Starting job manager",
		slog.Int("max_retained", m.maxRetained),
		slog.Duration("max_age", m.maxAge),
	)

	m.pool.start(m.runCtx)

	if m.maxAge > 0 && m.sweepInterval > 0 {
		m.wg.Add(1)
		go m.janitor()
	}
}

// Stop rejects new submissions and waits for running jobs. When ctx ends
// first, running processes are canceled. Jobs still queued stay pending.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.mu.Unlock()

	m.logger.Info("Stopping job manager...")

	close(m.stopChan)
	m.pool.stop()

	done := make(chan struct{})
	go func() {
		m.pool.wait()
		m.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline reached, canceling running jobs")
		m.cancel()
		<-done
		err = fmt.Errorf("job manager stopped before jobs finished: %w", ctx.Err())
	}
	m.cancel()

	if n := m.pool.queued(); n > 0 {
		m.logger.Warn("Queued jobs discarded", slog.Int("count", n))
	}

	m.logger.Info("Job manager stopped")
	return err
}

// Submit records a pending job and schedules it. It returns as soon as the
// job is recorded; execution happens in the background. An empty jobID is
// replaced by a generated one.
func (m *Manager) Submit(ctx context.Context, toolName string, params map[string]any, jobID string) (*domain.Job, error) {
	if m.tools != nil {
		if _, err := m.tools.Lookup(toolName); err != nil {
			return nil, err
		}
	}

	if jobID == "" {
		jobID = m.newID()
	}
	if params == nil {
		params = map[string]any{}
	} else {
		params = maps.Clone(params)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, domain.ErrManagerStopped
	}
	if _, exists := m.jobs[jobID]; exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobExists, jobID)
	}

	// The record is inserted before the lock is released, so a worker that
	// picks the id up immediately still finds it.
	if !m.pool.trySubmit(m.runCtx, jobID) {
		m.logger.Warn("Job rejected, queue is full",
			slog.String("job_id", jobID),
			slog.String("tool", toolName),
		)
		return nil, domain.ErrQueueFull
	}

	job := &domain.Job{
		ID:         jobID,
		ToolName:   toolName,
		Parameters: params,
		Status:     domain.JobStatusPending,
		StartTime:  m.now(),
	}
	m.jobs[jobID] = job
	m.order = append(m.order, jobID)
	m.publishLocked(job)
	m.enforceLimitLocked()

	m.logger.Info("Job submitted",
		slog.String("job_id", jobID),
		slog.String("tool", toolName),
	)

	return job.Clone(), nil
}

// process drives one job from pending to a terminal state
func (m *Manager) process(ctx context.Context, jobID string) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status != domain.JobStatusPending {
		m.mu.Unlock()
		m.logger.Warn("Skipping job that is no longer pending", slog.String("job_id", jobID))
		return
	}

	m.transitionLocked(job, domain.JobStatusRunning)
	job.Progress = domain.ProgressStarted
	m.publishLocked(job)

	m.setProgressLocked(job, domain.ProgressSetup)
	m.publishLocked(job)

	toolName := job.ToolName
	params := job.Clone().Parameters
	m.mu.Unlock()

	logger := m.logger.With(
		slog.String("job_id", jobID),
		slog.String("tool", toolName),
	)
	logger.Info("Job started")

	result := m.executor.Execute(ctx, toolName, params)

	m.mu.Lock()
	end := m.now()
	job.EndTime = &end

	if result.Success {
		result.JobID = jobID
		result.CompletedAt = &end
		result.Mode = domain.ModeAsync

		m.transitionLocked(job, domain.JobStatusCompleted)
		m.setProgressLocked(job, domain.ProgressFinished)
		job.Result = &result
		job.Error = ""
	} else {
		m.transitionLocked(job, domain.JobStatusFailed)
		job.Result = nil
		job.Error = result.Error
		if job.Error == "" {
			job.Error = "execution failed"
		}
	}
	m.publishLocked(job)
	snapshot := job.Clone()
	m.enforceLimitLocked()
	m.mu.Unlock()

	if snapshot.Status == domain.JobStatusCompleted {
		logger.Info("Job completed", slog.Int64("execution_time_ms", result.ExecutionTimeMs))
	} else {
		logger.Warn("Job failed", slog.String("error", snapshot.Error))
	}

	m.archive(snapshot)
}

func (m *Manager) transitionLocked(job *domain.Job, next domain.JobStatus) {
	if !job.Status.CanTransition(next) {
		m.logger.Error("Invalid job transition",
			slog.String("job_id", job.ID),
			slog.String("from", string(job.Status)),
			slog.String("to", string(next)),
		)
		return
	}
	job.Status = next
}

func (m *Manager) setProgressLocked(job *domain.Job, progress int) {
	if progress > job.Progress {
		job.Progress = progress
	}
}

func (m *Manager) publishLocked(job *domain.Job) {
	if m.publisher != nil {
		m.publisher.Publish(job.Clone())
	}
}

func (m *Manager) archive(job *domain.Job) {
	if m.archiver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := m.archiver.SaveJob(ctx, job); err != nil {
		m.logger.Error("Failed to archive job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Get returns a snapshot of the job held in memory
func (m *Manager) Get(jobID string) (*domain.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// Find looks the job up in memory, then in the archive
func (m *Manager) Find(ctx context.Context, jobID string) (*domain.Job, error) {
	if job, ok := m.Get(jobID); ok {
		return job, nil
	}
	if m.archiver == nil {
		return nil, domain.ErrJobNotFound
	}

	job, err := m.archiver.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load archived job: %w", err)
	}
	return job, nil
}

// ListAll returns snapshots of every job in submission order
func (m *Manager) ListAll() []*domain.Job {
	return m.list(func(*domain.Job) bool { return true })
}

// ListActive returns snapshots of pending and running jobs
func (m *Manager) ListActive() []*domain.Job {
	return m.list(func(j *domain.Job) bool { return j.Status.IsActive() })
}

func (m *Manager) list(keep func(*domain.Job) bool) []*domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Job, 0, len(m.order))
	for _, id := range m.order {
		if job := m.jobs[id]; keep(job) {
			out = append(out, job.Clone())
		}
	}
	return out
}

// Counts returns the total and active number of jobs held in memory
func (m *Manager) Counts() (total, active int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.Status.IsActive() {
			active++
		}
	}
	return len(m.jobs), active
}

// PurgeTerminal removes every completed or failed job and reports how many
// were removed
func (m *Manager) PurgeTerminal() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.removeLocked(func(j *domain.Job) bool { return j.Status.IsTerminal() }, -1)
	if removed > 0 {
		m.logger.Info("Terminal jobs purged", slog.Int("count", removed))
	}
	return removed
}

// enforceLimitLocked evicts the oldest terminal jobs beyond maxRetained.
// Active jobs are never evicted, so the table may exceed the bound while
// they run.
func (m *Manager) enforceLimitLocked() {
	if m.maxRetained <= 0 || len(m.jobs) <= m.maxRetained {
		return
	}

	excess := len(m.jobs) - m.maxRetained
	removed := m.removeLocked(func(j *domain.Job) bool { return j.Status.IsTerminal() }, excess)
	if removed > 0 {
		m.logger.Debug("Evicted terminal jobs over retention limit",
			slog.Int("count", removed),
			slog.Int("max_retained", m.maxRetained),
		)
	}
}

// removeLocked drops up to limit matching jobs, oldest first. A negative
// limit removes every match.
func (m *Manager) removeLocked(match func(*domain.Job) bool, limit int) int {
	removed := 0
	m.order = slices.DeleteFunc(m.order, func(id string) bool {
		if limit >= 0 && removed >= limit {
			return false
		}
		if match(m.jobs[id]) {
			delete(m.jobs, id)
			removed++
			return true
		}
		return false
	})
	return removed
}
