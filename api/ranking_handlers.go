package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// TSVContentType is the media type of the tab-separated ranking format.
const TSVContentType = "text/tab-separated-values"

// PutRankingRequest is the JSON body of PUT /rankings/:name. Entries are
// listed by descending score; Scores is an unordered alternative with
// optional per-item Comments.
type PutRankingRequest struct {
	Entries  []ranking.Entry    `json:"entries,omitempty"`
	Scores   map[string]float64 `json:"scores,omitempty"`
	Comments map[string]string  `json:"comments,omitempty"`
}

// RankingResponse is a stored ranking with its statistics.
type RankingResponse struct {
	model.RankingSummary
	Entries []ranking.Entry `json:"entries"`
}

// PutRankingHandler creates or replaces a ranking.
// A JSON body carries {"entries": [...]} or {"scores": {...}}; any other
// content type is read as the tab-separated ranking format, skipping
// malformed lines.
func (api *API) PutRankingHandler(c *gin.Context) {
	name := c.Param("name")
	if result := ValidateRankingName(name); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req PutRankingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			SendInvalidJSONError(c, err)
			return
		}

		entries := req.Entries
		if len(req.Scores) > 0 {
			if len(req.Entries) > 0 {
				result := &ValidationResult{Valid: true}
				result.AddError("scores", "Provide either entries or scores, not both")
				SendStructuredValidationError(c, result)
				return
			}
			entries = ranking.FromScores(req.Scores, req.Comments)
		}

		if result := ValidateEntries(entries); result.HasErrors() {
			SendStructuredValidationError(c, result)
			return
		}
		imported, err := api.service.PutEntries(name, entries)
		if err != nil {
			SendServiceError(c, "put ranking", err)
			return
		}
		c.JSON(http.StatusOK, imported)
		return
	}

	imported, err := api.service.ImportRanking(name, c.Request.Body)
	if err != nil {
		SendServiceError(c, "import ranking", err)
		return
	}
	c.JSON(http.StatusOK, imported)
}

// GetRankingHandler returns the entries and statistics of a ranking, or the
// ranking in the tab-separated format when the client accepts only that.
func (api *API) GetRankingHandler(c *gin.Context) {
	name := c.Param("name")

	source, err := api.service.GetRanking(name)
	if err != nil {
		SendServiceError(c, "get ranking", err)
		return
	}

	if c.NegotiateFormat(gin.MIMEJSON, TSVContentType) == TSVContentType {
		var buf bytes.Buffer
		if err := ranking.WriteEntries(&buf, source.Entries); err != nil {
			SendInternalError(c, "write ranking", err)
			return
		}
		c.Data(http.StatusOK, TSVContentType+"; charset=utf-8", buf.Bytes())
		return
	}

	summary, err := api.service.GetRankingSummary(name)
	if err != nil {
		SendServiceError(c, "get ranking", err)
		return
	}
	c.JSON(http.StatusOK, RankingResponse{RankingSummary: summary, Entries: source.Entries})
}

// ListRankingsHandler lists the summaries of all rankings.
func (api *API) ListRankingsHandler(c *gin.Context) {
	rankings := api.service.ListRankings()
	c.JSON(http.StatusOK, gin.H{
		"rankings": rankings,
		"total":    len(rankings),
	})
}

// DeleteRankingHandler deletes a ranking.
func (api *API) DeleteRankingHandler(c *gin.Context) {
	name := c.Param("name")
	if err := api.service.DeleteRanking(name); err != nil {
		SendServiceError(c, "delete ranking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ranking '" + name + "' deleted"})
}
