package storage

import (
	"testing"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRowConversion(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	tests := []struct {
		name string
		job  *domain.Job
	}{
		{
			name: "completed with result",
			job: &domain.Job{
				ID:         "job-1",
				ToolName:   "get-GLEIF-verification-with-sign",
				Parameters: map[string]any{"companyName": "ACME", "network": "TESTNET"},
				Status:     domain.JobStatusCompleted,
				Progress:   100,
				StartTime:  start,
				EndTime:    &end,
				Result: &domain.Result{
					Success:         true,
					ExecutionTimeMs: 90000,
					JobID:           "job-1",
					Mode:            domain.ModeAsync,
					Result:          &domain.Report{Status: "completed", ZKProofGenerated: true},
				},
			},
		},
		{
			name: "failed without result",
			job: &domain.Job{
				ID:         "job-2",
				ToolName:   "get-EXIM-verification-with-sign",
				Parameters: map[string]any{},
				Status:     domain.JobStatusFailed,
				Progress:   10,
				StartTime:  start,
				EndTime:    &end,
				Error:      "script execution timeout after 1800000ms",
			},
		},
		{
			name: "still running",
			job: &domain.Job{
				ID:         "job-3",
				ToolName:   "get-BPI-compliance-verification",
				Parameters: map[string]any{"threshold": float64(95)},
				Status:     domain.JobStatusRunning,
				Progress:   10,
				StartTime:  start,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := toRow(tt.job)
			require.NoError(t, err)
			assert.Equal(t, tt.job.ID, row.JobID)
			assert.Equal(t, string(tt.job.Status), row.Status)
			assert.Equal(t, tt.job.EndTime != nil, row.EndTime.Valid)
			assert.Equal(t, tt.job.Result == nil, row.Result == nil)

			back, err := row.toDomain()
			require.NoError(t, err)
			assert.Equal(t, tt.job, back)
		})
	}
}

func TestJobRowToDomain_InvalidJSON(t *testing.T) {
	row := &jobRow{JobID: "job-1", Parameters: []byte("{not json")}
	_, err := row.toDomain()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal parameters")
}
