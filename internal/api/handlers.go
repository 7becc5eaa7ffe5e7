package api

import (
	"errors"
	"net/http"

	"loan-intake-workers/internal/common/metrics"
	"loan-intake-workers/internal/scorestore"
	"loan-intake-workers/pkg/crustscore"

	"github.com/gin-gonic/gin"
)

const errProcessingScore = "Error processing crust score"

type calculateResponse struct {
	Success        bool              `json:"success"`
	CrustScore     float64           `json:"crust_score"`
	Rating         crustscore.Rating `json:"rating"`
	Risk           crustscore.Risk   `json:"risk"`
	AssetScore     float64           `json:"asset_score"`
	BehaviourScore float64           `json:"behaviour_score"`
	CashflowScore  float64           `json:"cashflow_score"`
}

type scoreResponse struct {
	Success    bool              `json:"success"`
	CrustScore float64           `json:"crust_score"`
	Rating     crustscore.Rating `json:"rating"`
	Risk       crustscore.Risk   `json:"risk"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// calculateScore handles POST /api/user/:id/crust-score. The body is the flat
// scoring record in either mode.
func (s *Server) calculateScore(c *gin.Context) {
	userID := c.Param("id")

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}

	result, err := crustscore.Calculate(fields)
	if err != nil {
		metrics.RecordScoreError(crustscore.FieldOf(err))
		s.logger.Warn("crust score rejected", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		c.JSON(http.StatusInternalServerError, errorResponse{Message: errProcessingScore, Error: err.Error()})
		return
	}
	metrics.RecordScore(string(result.Mode), string(result.Rating), result.CompositeScore, result.HasRedFlags())

	if _, err := s.store.SaveScore(c.Request.Context(), userID, result); err != nil {
		if errors.Is(err, scorestore.ErrApplicantNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Message: "Applicant not found"})
			return
		}
		s.logger.Error("crust score not saved", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		c.JSON(http.StatusInternalServerError, errorResponse{Message: errProcessingScore, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, calculateResponse{
		Success:        true,
		CrustScore:     result.CompositeScore,
		Rating:         result.Rating,
		Risk:           result.Risk,
		AssetScore:     result.AScore,
		BehaviourScore: result.BScore,
		CashflowScore:  result.CScore,
	})
}

// getScore handles GET /api/user/:id/crust-score.
func (s *Server) getScore(c *gin.Context) {
	userID := c.Param("id")

	summary, err := s.store.GetScore(c.Request.Context(), userID)
	switch {
	case errors.Is(err, scorestore.ErrApplicantNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Message: "Applicant not found"})
		return
	case errors.Is(err, scorestore.ErrScoreNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Message: "Crust score not calculated"})
		return
	case err != nil:
		s.logger.Error("crust score lookup failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		c.JSON(http.StatusInternalServerError, errorResponse{Message: "Error fetching crust score", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, scoreResponse{
		Success:    true,
		CrustScore: summary.CrustScore,
		Rating:     summary.Rating,
		Risk:       summary.Risk,
	})
}
