package domain

import (
	"maps"
	"time"
)

// Job is one tracked background invocation of an external verification tool
type Job struct {
	ID         string         `json:"id" db:"job_id"`
	ToolName   string         `json:"toolName" db:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Status     JobStatus      `json:"status" db:"status"`
	StartTime  time.Time      `json:"startTime" db:"start_time"`
	EndTime    *time.Time     `json:"endTime,omitempty" db:"end_time"`
	Progress   int            `json:"progress" db:"progress"`
	Result     *Result        `json:"result,omitempty"`
	Error      string         `json:"error,omitempty" db:"error_message"`
}

// Clone returns a copy that can be handed out without sharing mutable state.
// Result is shared because it is never mutated after being set.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	c.Parameters = maps.Clone(j.Parameters)
	if j.EndTime != nil {
		t := *j.EndTime
		c.EndTime = &t
	}
	return &c
}
