package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_Clone(t *testing.T) {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job := &Job{
		ID:         "job_1",
		ToolName:   "tool",
		Parameters: map[string]any{"companyName": "ACME"},
		Status:     JobStatusCompleted,
		EndTime:    &end,
		Progress:   ProgressFinished,
		Result:     &Result{Success: true},
	}

	c := job.Clone()
	require.NotSame(t, job, c)
	assert.Equal(t, job, c)

	c.Parameters["companyName"] = "Other"
	*c.EndTime = end.Add(time.Hour)
	c.Status = JobStatusFailed

	assert.Equal(t, "ACME", job.Parameters["companyName"])
	assert.Equal(t, end, *job.EndTime)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Same(t, job.Result, c.Result)
}

func TestJob_CloneNil(t *testing.T) {
	var job *Job
	assert.Nil(t, job.Clone())
}
