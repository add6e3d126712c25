package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

// jobRow is the archived form of a job
type jobRow struct {
	JobID        string       `db:"job_id"`
	ToolName     string       `db:"tool_name"`
	Parameters   []byte       `db:"parameters"`
	Status       string       `db:"status"`
	Progress     int          `db:"progress"`
	Result       []byte       `db:"result"`
	ErrorMessage string       `db:"error_message"`
	StartTime    time.Time    `db:"start_time"`
	EndTime      sql.NullTime `db:"end_time"`
}

func toRow(job *domain.Job) (*jobRow, error) {
	params, err := json.Marshal(job.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}

	var result []byte
	if job.Result != nil {
		result, err = json.Marshal(job.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	row := &jobRow{
		JobID:        job.ID,
		ToolName:     job.ToolName,
		Parameters:   params,
		Status:       string(job.Status),
		Progress:     job.Progress,
		Result:       result,
		ErrorMessage: job.Error,
		StartTime:    job.StartTime,
	}
	if job.EndTime != nil {
		row.EndTime = sql.NullTime{Time: *job.EndTime, Valid: true}
	}

	return row, nil
}

func (r *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		ID:        r.JobID,
		ToolName:  r.ToolName,
		Status:    domain.JobStatus(r.Status),
		Progress:  r.Progress,
		Error:     r.ErrorMessage,
		StartTime: r.StartTime,
	}

	if len(r.Parameters) > 0 {
		if err := json.Unmarshal(r.Parameters, &job.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
		}
	}

	if len(r.Result) > 0 {
		var result domain.Result
		if err := json.Unmarshal(r.Result, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		job.Result = &result
	}

	if r.EndTime.Valid {
		end := r.EndTime.Time
		job.EndTime = &end
	}

	return job, nil
}
