package notify

import (
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

// Message types
const (
	TypeJobUpdate  = "job_update"
	TypeConnection = "connection"
)

// DefaultServerName identifies this service in outgoing messages
const DefaultServerName = "verifier-gateway"

// Message is one event delivered to subscribers
type Message struct {
	Type      string         `json:"type"`
	JobID     string         `json:"jobId,omitempty"`
	Status    string         `json:"status"`
	Progress  *int           `json:"progress,omitempty"`
	Result    *domain.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Server    string         `json:"server,omitempty"`
}

// JobUpdate snapshots the observable fields of job
func JobUpdate(job *domain.Job, server string) Message {
	progress := job.Progress
	return Message{
		Type:      TypeJobUpdate,
		JobID:     job.ID,
		Status:    string(job.Status),
		Progress:  &progress,
		Result:    job.Result,
		Error:     job.Error,
		Timestamp: time.Now().UTC(),
		Server:    server,
	}
}

// ConnectionMessage is the first message every subscriber receives
func ConnectionMessage(server string) Message {
	return Message{
		Type:      TypeConnection,
		Status:    "connected",
		Timestamp: time.Now().UTC(),
		Server:    server,
	}
}
