package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/api/dto"
	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/cuongbtq/verifier-gateway/internal/executor"
	"github.com/cuongbtq/verifier-gateway/internal/notify"
)

// DefaultVersion is reported by health and status endpoints when none is configured
const DefaultVersion = "1.0.0"

// ToolExecutor runs verification tools synchronously
type ToolExecutor interface {
	ListTools() []string
	Execute(ctx context.Context, toolName string, params map[string]any) domain.Result
	HealthCheck(ctx context.Context) executor.Health
}

// JobService manages background jobs
type JobService interface {
	Submit(ctx context.Context, toolName string, params map[string]any, jobID string) (*domain.Job, error)
	Find(ctx context.Context, jobID string) (*domain.Job, error)
	ListAll() []*domain.Job
	Counts() (total, active int)
	PurgeTerminal() int
}

// EventSource hands out live job update feeds
type EventSource interface {
	Subscribe() *notify.Subscription
	SubscriberCount() int
	Dropped() uint64
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Executor     ToolExecutor
	Jobs         JobService
	Events       EventSource
	AsyncEnabled bool
	ArchiveOn    bool
	ServerName   string
	Version      string
	Host         string
	Port         int
	APIKey       string
	CORSOrigin   string
}

// Handler serves the tool, job and event endpoints
type Handler struct {
	logger       *slog.Logger
	executor     ToolExecutor
	jobs         JobService
	events       EventSource
	asyncEnabled bool
	archiveOn    bool
	server       string
	version      string
	host         string
	port         int
	now          func() time.Time
}

// New creates a new Handler instance
func New(deps *Dependencies) *Handler {
	server := deps.ServerName
	if server == "" {
		server = notify.DefaultServerName
	}
	version := deps.Version
	if version == "" {
		version = DefaultVersion
	}

	return &Handler{
		logger:       deps.Logger,
		executor:     deps.Executor,
		jobs:         deps.Jobs,
		events:       deps.Events,
		asyncEnabled: deps.AsyncEnabled,
		archiveOn:    deps.ArchiveOn,
		server:       server,
		version:      version,
		host:         deps.Host,
		port:         deps.Port,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) features() dto.Features {
	return dto.Features{
		SyncExecution:  true,
		AsyncExecution: h.asyncEnabled,
		Events:         true,
		JobArchive:     h.archiveOn,
	}
}

func (h *Handler) errorResponse(err, message string) dto.ErrorResponse {
	return dto.ErrorResponse{
		Success:   false,
		Error:     err,
		Message:   message,
		Timestamp: h.now(),
		Server:    h.server,
	}
}
