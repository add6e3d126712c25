package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/api/dto"
	"github.com/cuongbtq/verifier-gateway/internal/domain"
	"github.com/cuongbtq/verifier-gateway/internal/tools"
	"github.com/gin-gonic/gin"
)

// Risk types accepted by the risk convenience endpoint
const (
	RiskTypeAdvanced   = "advanced"
	RiskTypeBasel3     = "basel3"
	RiskTypeStablecoin = "stablecoin"
)

// EventsPath is where clients subscribe to job updates
const EventsPath = "/api/v1/events"

// Health handles GET /api/v1/health
func (h *Handler) Health(c *gin.Context) {
	health := h.executor.HealthCheck(c.Request.Context())
	_, active := h.jobs.Counts()

	status := "healthy"
	if !health.Reachable {
		status = "degraded"
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:          status,
		Timestamp:       h.now(),
		Server:          h.server,
		Version:         h.version,
		Mode:            domain.ExecutionModeIntegrated,
		ActiveJobs:      active,
		Subscribers:     h.events.SubscriberCount(),
		AsyncJobs:       h.asyncEnabled,
		ExecutorHealthy: health.Reachable,
		Executor:        health,
	})
}

// Status handles GET /api/v1/status
func (h *Handler) Status(c *gin.Context) {
	health := h.executor.HealthCheck(c.Request.Context())
	total, active := h.jobs.Counts()

	status := "healthy"
	if !health.Reachable {
		status = "degraded"
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		Server:    h.server,
		Version:   h.version,
		Mode:      domain.ExecutionModeIntegrated,
		Status:    status,
		Timestamp: h.now(),
		Host:      h.host,
		Port:      h.port,
		Features:  h.features(),
		Executor:  health,
		Jobs:      dto.JobCounts{Total: total, Active: active},
		Events: dto.EventStats{
			Subscribers: h.events.SubscriberCount(),
			Dropped:     h.events.Dropped(),
		},
	})
}

// ListTools handles GET /api/v1/tools
func (h *Handler) ListTools(c *gin.Context) {
	names := h.executor.ListTools()

	c.JSON(http.StatusOK, dto.ListToolsResponse{
		Success:   true,
		Tools:     names,
		Count:     len(names),
		Timestamp: h.now(),
		Server:    h.server,
		Mode:      domain.ExecutionModeIntegrated,
		Features:  h.features(),
	})
}

// Execute handles POST /api/v1/tools/execute
// Runs the tool and holds the request until it finishes
func (h *Handler) Execute(c *gin.Context) {
	var req dto.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, h.errorResponse("Invalid request body", err.Error()))
		return
	}

	if req.ToolName == "" {
		c.JSON(http.StatusBadRequest, h.errorResponse("toolName is required", ""))
		return
	}

	h.runSync(c, req.ToolName, req.Parameters)
}

// ExecuteGLEIF handles POST /api/v1/tools/gleif
func (h *Handler) ExecuteGLEIF(c *gin.Context) {
	h.runConvenience(c, func(map[string]any) string { return tools.ToolGLEIF })
}

// ExecuteCorporate handles POST /api/v1/tools/corporate
func (h *Handler) ExecuteCorporate(c *gin.Context) {
	h.runConvenience(c, func(map[string]any) string { return tools.ToolCorporateRegistration })
}

// ExecuteEXIM handles POST /api/v1/tools/exim
func (h *Handler) ExecuteEXIM(c *gin.Context) {
	h.runConvenience(c, func(map[string]any) string { return tools.ToolEXIM })
}

// ExecuteRisk handles POST /api/v1/tools/risk
// The riskType body field picks the tool; unknown or missing values run the advanced check
func (h *Handler) ExecuteRisk(c *gin.Context) {
	h.runConvenience(c, riskTool)
}

func riskTool(params map[string]any) string {
	riskType, _ := params["riskType"].(string)
	switch riskType {
	case RiskTypeBasel3:
		return tools.ToolRiskBasel3
	case RiskTypeStablecoin:
		return tools.ToolStablecoinReservesRisk
	default:
		return tools.ToolRiskAdvanced
	}
}

// runConvenience treats the whole body as the tool parameters
func (h *Handler) runConvenience(c *gin.Context, pick func(map[string]any) string) {
	var params map[string]any
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, h.errorResponse("Invalid request body", err.Error()))
		return
	}
	if params == nil {
		params = map[string]any{}
	}

	h.runSync(c, pick(params), params)
}

func (h *Handler) runSync(c *gin.Context, toolName string, params map[string]any) {
	start := time.Now()
	if params == nil {
		params = map[string]any{}
	}

	h.logger.Info("Sync execution started",
		slog.String("tool", toolName),
		slog.Any("parameters", params),
	)

	result := h.executor.Execute(c.Request.Context(), toolName, params)
	total := time.Since(start)

	h.logger.Info("Sync execution finished",
		slog.String("tool", toolName),
		slog.Bool("success", result.Success),
		slog.Int64("execution_time_ms", result.ExecutionTimeMs),
		slog.Duration("total", total),
	)

	status := syncStatus(result)

	c.JSON(status, dto.ExecuteResponse{
		Success:         result.Success,
		ToolName:        toolName,
		Parameters:      params,
		Result:          result.Result,
		Error:           result.Error,
		ExecutionTimeMs: result.ExecutionTimeMs,
		TotalTimeMs:     total.Milliseconds(),
		Timestamp:       h.now(),
		Server:          h.server,
		Mode:            domain.ModeSync,
	})
}

// ExecuteAsync handles POST /api/v1/tools/execute-async
// Records a pending job and returns its id without waiting for the tool
func (h *Handler) ExecuteAsync(c *gin.Context) {
	if !h.asyncEnabled {
		c.JSON(http.StatusBadRequest, h.errorResponse(
			"Async jobs are disabled",
			"Set ENABLE_ASYNC_JOBS=true to use async execution",
		))
		return
	}

	var req dto.ExecuteAsyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, h.errorResponse("Invalid request body", err.Error()))
		return
	}

	if req.ToolName == "" {
		c.JSON(http.StatusBadRequest, h.errorResponse("toolName is required", ""))
		return
	}

	job, err := h.jobs.Submit(c.Request.Context(), req.ToolName, req.Parameters, req.JobID)
	if err != nil {
		status := submitStatus(err)
		h.logger.Warn("Async submission rejected",
			slog.String("tool", req.ToolName),
			slog.String("job_id", req.JobID),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		resp := h.errorResponse("Failed to start async job", err.Error())
		resp.JobID = req.JobID
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitJobResponse{
		Success:   true,
		JobID:     job.ID,
		Status:    string(job.Status),
		ToolName:  job.ToolName,
		Timestamp: job.StartTime.UTC(),
		Message:   "Async job started successfully",
		Server:    h.server,
		Mode:      domain.ModeAsync,
		EventsURL: EventsPath,
	})
}

func syncStatus(result domain.Result) int {
	switch {
	case result.Success:
		return http.StatusOK
	case errors.Is(result.Err, domain.ErrUnknownTool):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownTool), errors.Is(err, domain.ErrAsyncDisabled):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrJobExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrManagerStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
