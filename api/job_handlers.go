package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/model"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	job, err := api.service.GetJob(c.Param("jobId"))
	if err != nil {
		SendServiceError(c, "get job", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobsHandler handles requests to list jobs, optionally filtered by ?status
func (api *API) ListJobsHandler(c *gin.Context) {
	status, result := ValidateJobStatus(c.Query("status"))
	if result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	jobs := api.service.ListJobs(status)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// CancelJobHandler cancels a pending or running job
func (api *API) CancelJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")
	if err := api.service.CancelJob(jobID); err != nil {
		if errors.Is(err, apperrors.ErrJobNotFound) {
			SendServiceError(c, "cancel job", err)
			return
		}
		SendError(c, http.StatusConflict, ErrorCodeJobNotCancellable, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Cancellation requested for job '" + jobID + "'",
		"job_id":  jobID,
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	metrics := api.service.GetJobMetrics()
	c.JSON(http.StatusOK, gin.H{
		"metrics":          metrics,
		"success_rate":     metrics.SuccessRate,
		"current_workload": metrics.JobsByStatus[model.JobStatusPending] + metrics.JobsByStatus[model.JobStatusRunning],
	})
}
