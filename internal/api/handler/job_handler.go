package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/cuongbtq/verifier-gateway/internal/api/dto"
	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/gin-gonic/gin"
)

// Page size bounds for GET /api/v1/jobs when page_size is given
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// GetJob handles GET /api/v1/jobs/:job_id
// Jobs no longer held in memory are looked up in the archive
func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, h.errorResponse("job_id is required", ""))
		return
	}

	job, err := h.jobs.Find(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			resp := h.errorResponse("Job not found", "")
			resp.JobID = jobID
			c.JSON(http.StatusNotFound, resp)
			return
		}

		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, h.errorResponse("Failed to get job", err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.JobResponse{
		Success:   true,
		Job:       job,
		Timestamp: h.now(),
		Server:    h.server,
		Mode:      domain.ModeAsync,
	})
}

// ListJobs handles GET /api/v1/jobs
// Without page_size every job in memory is returned in submission order
func (h *Handler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, h.errorResponse("Invalid query parameters", err.Error()))
		return
	}

	status := domain.JobStatus(req.Status)
	if req.Status != "" && !status.IsActive() && !status.IsTerminal() {
		c.JSON(http.StatusBadRequest, h.errorResponse("Invalid status filter", req.Status))
		return
	}

	cursor, err := decodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, h.errorResponse("Invalid cursor", ""))
		return
	}

	jobs := h.jobs.ListAll()
	if req.Status != "" {
		jobs = slices.DeleteFunc(jobs, func(j *domain.Job) bool { return j.Status != status })
	}
	total := len(jobs)
	_, active := h.jobs.Counts()

	if cursor != nil {
		jobs = jobs[afterCursor(jobs, cursor):]
	}

	var nextCursor string
	if req.PageSize > 0 || cursor != nil {
		pageSize := req.PageSize
		if pageSize <= 0 {
			pageSize = DefaultPageSize
		}
		if pageSize > MaxPageSize {
			pageSize = MaxPageSize
		}

		if len(jobs) > pageSize {
			jobs = jobs[:pageSize]
			last := jobs[len(jobs)-1]
			nextCursor = encodeJobCursor(&jobCursor{StartTime: last.StartTime, JobID: last.ID})
		}
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Success:    true,
		Jobs:       jobs,
		Total:      total,
		Active:     active,
		NextCursor: nextCursor,
		Timestamp:  h.now(),
		Server:     h.server,
		Mode:       domain.ModeAsync,
	})
}

// afterCursor returns the index of the first job following the cursor. When
// the cursor job has since been removed, the start time decides.
func afterCursor(jobs []*domain.Job, cursor *jobCursor) int {
	if i := slices.IndexFunc(jobs, func(j *domain.Job) bool { return j.ID == cursor.JobID }); i >= 0 {
		return i + 1
	}
	if i := slices.IndexFunc(jobs, func(j *domain.Job) bool { return j.StartTime.After(cursor.StartTime) }); i >= 0 {
		return i
	}
	return len(jobs)
}

// PurgeCompleted handles DELETE /api/v1/jobs/completed
// Removes every completed or failed job; active jobs are untouched
func (h *Handler) PurgeCompleted(c *gin.Context) {
	removed := h.jobs.PurgeTerminal()

	h.logger.Info("Terminal jobs purged", slog.Int("removed", removed))

	c.JSON(http.StatusOK, dto.PurgeJobsResponse{
		Success:   true,
		Message:   "Completed jobs cleared",
		Removed:   removed,
		Timestamp: h.now(),
		Server:    h.server,
		Mode:      domain.ModeAsync,
	})
}
