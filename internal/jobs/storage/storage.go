package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/verifier-gateway/internal/domain"
)

//go:embed schema.sql
var schema string

// Storage archives terminal jobs in PostgreSQL
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the archive table when it does not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create job archive schema: %w", err)
	}
	return nil
}

// SaveJob inserts or replaces the archived copy of job
func (s *Storage) SaveJob(ctx context.Context, job *domain.Job) error {
	row, err := toRow(job)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO job_archive (
			job_id, tool_name, parameters, status, progress,
			result, error_message, start_time, end_time, archived_at
		) VALUES (
			:job_id, :tool_name, :parameters, :status, :progress,
			:result, :error_message, :start_time, :end_time, NOW()
		)
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			result = EXCLUDED.result,
			error_message = EXCLUDED.error_message,
			end_time = EXCLUDED.end_time,
			archived_at = NOW()
	`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to archive job: %w", err)
	}

	s.logger.Debug("Job archived",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
	)

	return nil
}

// GetJob loads an archived job
func (s *Storage) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT job_id, tool_name, parameters, status, progress,
		       result, COALESCE(error_message, '') AS error_message, start_time, end_time
		FROM job_archive
		WHERE job_id = $1
	`

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get archived job: %w", err)
	}

	return row.toDomain()
}
