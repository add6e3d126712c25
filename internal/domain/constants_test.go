package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_CanTransition(t *testing.T) {
	all := []JobStatus{JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed}
	allowed := map[JobStatus][]JobStatus{
		JobStatusPending: {JobStatusRunning},
		JobStatusRunning: {JobStatusCompleted, JobStatusFailed},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestJobStatus_Classes(t *testing.T) {
	tests := []struct {
		status   JobStatus
		active   bool
		terminal bool
	}{
		{status: JobStatusPending, active: true},
		{status: JobStatusRunning, active: true},
		{status: JobStatusCompleted, terminal: true},
		{status: JobStatusFailed, terminal: true},
		{status: JobStatus("unknown")},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.active, tt.status.IsActive())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}
