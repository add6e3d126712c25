package dto

import (
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

type SubmitJobResponse struct {
	Success   bool      `json:"success"`
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	ToolName  string    `json:"toolName"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Server    string    `json:"server"`
	Mode      string    `json:"mode"`
	EventsURL string    `json:"eventsUrl"`
}

type JobResponse struct {
	Success   bool        `json:"success"`
	Job       *domain.Job `json:"job"`
	Timestamp time.Time   `json:"timestamp"`
	Server    string      `json:"server"`
	Mode      string      `json:"mode"`
}

type ListJobsResponse struct {
	Success    bool          `json:"success"`
	Jobs       []*domain.Job `json:"jobs"`
	Total      int           `json:"total"`
	Active     int           `json:"active"`
	NextCursor string        `json:"nextCursor,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Server     string        `json:"server"`
	Mode       string        `json:"mode"`
}

type PurgeJobsResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Removed   int       `json:"removed"`
	Timestamp time.Time `json:"timestamp"`
	Server    string    `json:"server"`
	Mode      string    `json:"mode"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}
