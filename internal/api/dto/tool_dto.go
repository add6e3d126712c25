package dto

import (
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/cuongbtq/verifier-gateway/internal/executor"
)

type ExecuteRequest struct {
	ToolName   string         `json:"toolName"`
	Parameters map[string]any `json:"parameters"`
}

type ExecuteAsyncRequest struct {
	ToolName   string         `json:"toolName"`
	Parameters map[string]any `json:"parameters"`
	JobID      string         `json:"jobId"`
}

type ExecuteResponse struct {
	Success         bool           `json:"success"`
	ToolName        string         `json:"toolName"`
	Parameters      map[string]any `json:"parameters,omitempty"`
	Result          *domain.Report `json:"result"`
	Error           string         `json:"error,omitempty"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
	TotalTimeMs     int64          `json:"totalTimeMs"`
	Timestamp       time.Time      `json:"timestamp"`
	Server          string         `json:"server"`
	Mode            string         `json:"mode"`
}

type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	JobID     string    `json:"jobId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Server    string    `json:"server,omitempty"`
}

type Features struct {
	SyncExecution  bool `json:"syncExecution"`
	AsyncExecution bool `json:"asyncExecution"`
	Events         bool `json:"events"`
	JobArchive     bool `json:"jobArchive"`
}

type ListToolsResponse struct {
	Success   bool      `json:"success"`
	Tools     []string  `json:"tools"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
	Server    string    `json:"server"`
	Mode      string    `json:"mode"`
	Features  Features  `json:"features"`
}

type HealthResponse struct {
	Status          string          `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
	Server          string          `json:"server"`
	Version         string          `json:"version"`
	Mode            string          `json:"mode"`
	ActiveJobs      int             `json:"activeJobs"`
	Subscribers     int             `json:"subscribers"`
	AsyncJobs       bool            `json:"asyncJobs"`
	ExecutorHealthy bool            `json:"executorHealthy"`
	Executor        executor.Health `json:"executorStatus"`
}

type JobCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type EventStats struct {
	Subscribers int    `json:"subscribers"`
	Dropped     uint64 `json:"dropped"`
}

type StatusResponse struct {
	Server    string          `json:"server"`
	Version   string          `json:"version"`
	Mode      string          `json:"mode"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Host      string          `json:"host"`
	Port      int             `json:"port"`
	Features  Features        `json:"features"`
	Executor  executor.Health `json:"executor"`
	Jobs      JobCounts       `json:"jobs"`
	Events    EventStats      `json:"events"`
}
