package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-rank-compare/internal/report"
	"github.com/gcbaptista/go-rank-compare/model"
)

// CreateComparisonHandler runs a comparison of stored rankings.
// Request Body: model.ComparisonRequest
// With ?async=true the comparison runs as a job and 202 {job_id} is returned;
// otherwise the report is returned in ?format (json by default).
func (api *API) CreateComparisonHandler(c *gin.Context) {
	async, err := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if err != nil {
		result := &ValidationResult{Valid: true}
		result.AddError("async", "async must be a boolean")
		SendStructuredValidationError(c, result)
		return
	}
	format, result := ValidateFormat(c.DefaultQuery("format", string(report.FormatJSON)))
	if result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	var req model.ComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if async {
		jobID, err := api.service.CompareAsync(req)
		if err != nil {
			SendServiceError(c, "comparison", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Comparison against '" + req.Gold + "' started",
			"job_id":  jobID,
		})
		return
	}

	r, err := api.service.Compare(c.Request.Context(), req)
	if err != nil {
		SendServiceError(c, "comparison", err)
		return
	}
	api.renderReport(c, r, format)
}

// GetComparisonHandler returns a stored report in ?format (json by default).
func (api *API) GetComparisonHandler(c *gin.Context) {
	format, result := ValidateFormat(c.DefaultQuery("format", string(report.FormatJSON)))
	if result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	r, err := api.service.GetReport(c.Param("id"))
	if err != nil {
		SendServiceError(c, "get comparison", err)
		return
	}
	api.renderReport(c, r, format)
}

// ListComparisonsHandler lists the summaries of stored reports, newest first.
func (api *API) ListComparisonsHandler(c *gin.Context) {
	reports := api.service.ListReports()
	c.JSON(http.StatusOK, gin.H{
		"comparisons": reports,
		"total":       len(reports),
	})
}

// DeleteComparisonHandler deletes a stored report.
func (api *API) DeleteComparisonHandler(c *gin.Context) {
	id := c.Param("id")
	if err := api.service.DeleteReport(id); err != nil {
		SendServiceError(c, "delete comparison", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comparison '" + id + "' deleted"})
}

func (api *API) renderReport(c *gin.Context, r *model.Report, format report.Format) {
	var buf bytes.Buffer
	if err := report.Render(&buf, r, format); err != nil {
		SendInternalError(c, "render report", err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
