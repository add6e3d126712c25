package router

import (
	"net/http"
	"time"

	"github.com/cuongbtq/verifier-gateway/internal/api/dto"
	"github.com/cuongbtq/verifier-gateway/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(deps.CORSOrigin))

	h := handler.New(deps)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Success:   false,
			Error:     "Endpoint not found",
			Message:   c.Request.Method + " " + c.Request.URL.Path,
			Timestamp: time.Now().UTC(),
		})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health)
		v1.GET("/status", h.Status)
		v1.GET("/events", h.Events)

		tools := v1.Group("/tools")
		tools.Use(APIKeyMiddleware(deps.APIKey))
		{
			// GET /api/v1/tools - List registered tool identifiers
			tools.GET("", h.ListTools)

			// POST /api/v1/tools/execute - Run a tool and wait for the result
			tools.POST("/execute", h.Execute)

			// POST /api/v1/tools/execute-async - Start a background job
			tools.POST("/execute-async", h.ExecuteAsync)

			tools.POST("/gleif", h.ExecuteGLEIF)
			tools.POST("/corporate", h.ExecuteCorporate)
			tools.POST("/exim", h.ExecuteEXIM)
			tools.POST("/risk", h.ExecuteRisk)
		}

		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - List jobs with optional status filter and pagination
			jobs.GET("", h.ListJobs)

			// DELETE /api/v1/jobs/completed - Purge completed and failed jobs
			jobs.DELETE("/completed", h.PurgeCompleted)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", h.GetJob)
		}
	}

	return r
}
