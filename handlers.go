package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// server holds the collaborators the HTTP handlers need.
type server struct {
	store      reportStore
	suggester  *Suggester
	reports    *reportService
	dashboard  *dashboardService
	reconciler *Reconciler
}

// healthCheck handles the health check endpoint
func (s *server) healthCheck(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "smart-suggestion",
	})
}

// suggest returns canned savings tips for a category/amount pair
func (s *server) suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.suggester.Suggest(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// saveReport stores a monthly report unless one already exists
func (s *server) saveReport(c *gin.Context) {
	var req SaveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := s.reports.Save(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	switch outcome {
	case SaveAlreadyExists:
		c.JSON(http.StatusOK, gin.H{"message": "Report already exists"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "Monthly report saved successfully"})
	}
}

// getReports lists the three most recent reports for a user
func (s *server) getReports(c *gin.Context) {
	reports, err := s.reports.Recent(c.Request.Context(), strings.TrimSpace(c.Param("user_id")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// updateReport reconciles the current month's report from the remote service
func (s *server) updateReport(c *gin.Context) {
	result, err := s.reconciler.Reconcile(c.Request.Context(), strings.TrimSpace(c.Param("user_id")))
	if err != nil {
		respondError(c, err)
		return
	}

	switch result.Outcome {
	case ReconcileCreated, ReconcileUpdated:
		c.JSON(http.StatusOK, gin.H{"message": "Monthly report updated", "outcome": result.Outcome.String()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Monthly report not changed", "outcome": result.Outcome.String()})
	}
}

// dashboardSummary aggregates local expenses for one month
func (s *server) dashboardSummary(c *gin.Context) {
	monthParam := strings.TrimSpace(c.Query("month"))
	yearParam := strings.TrimSpace(c.Query("year"))
	userID := strings.TrimSpace(c.Query("user_id"))

	if monthParam == "" || yearParam == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Month, year, and user_id are required"})
		return
	}

	month := monthNumber(monthParam)
	if month == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	year, err := strconv.Atoi(yearParam)
	if err != nil || year < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}

	summary, err := s.dashboard.Summary(c.Request.Context(), userID, month, year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// routes registers the HTTP surface on r.
func (s *server) routes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Smart Suggestion API is running.")
	})
	r.GET("/health", s.healthCheck)

	api := r.Group("/api")
	api.POST("/suggest", s.suggest)
	api.POST("/save-report", s.saveReport)
	api.GET("/reports/:user_id", s.getReports)
	api.POST("/reports/update/:user_id", s.updateReport)
	api.GET("/dashboard/summary", s.dashboardSummary)
}
