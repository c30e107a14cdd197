package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sarcasm-review/internal/auth"
	"sarcasm-review/internal/emoji"
	"sarcasm-review/internal/models"
	"sarcasm-review/internal/repository"
	"sarcasm-review/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	reviewer *service.Reviewer
	auth     *auth.Authenticator // nil when authentication is off
	logger   *zap.Logger
}

// NewHandler creates a new API handler. authenticator may be nil, in which
// case write endpoints are open.
func NewHandler(reviewer *service.Reviewer, authenticator *auth.Authenticator, logger *zap.Logger) *Handler {
	return &Handler{
		reviewer: reviewer,
		auth:     authenticator,
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/classify", h.Classify)

		// Runs
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
		api.GET("/runs/:id/records", h.GetRecords)
		api.GET("/runs/:id/verdicts", h.GetVerdicts)

		// Export
		api.GET("/runs/:id/export/csv", h.ExportCSV)
		api.GET("/runs/:id/export/json", h.ExportJSON)

		api.GET("/stats", h.GetStats)
	}

	write := api.Group("")
	if h.auth != nil {
		api.POST("/auth/login", h.Login)
		write.Use(h.auth.Middleware())
	}
	{
		write.POST("/runs", h.CreateRun)
		write.POST("/runs/:id/verdicts", h.ImportVerdicts)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// Login exchanges reviewer credentials for a token
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, expiresAt, err := h.auth.Login(req.Name, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to log in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Classify classifies a single text without storing anything
func (h *Handler) Classify(c *gin.Context) {
	var req models.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found := emoji.Extract(req.Text)
	if found == nil {
		found = []string{}
	}
	c.JSON(http.StatusOK, models.ClassifyResponse{
		Text:                 req.Text,
		Emoji:                found,
		ClassificationResult: h.reviewer.Classify(req.Text),
	})
}

// CreateRun runs a review profile and returns the finished run
func (h *Handler) CreateRun(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.reviewer.Analyze(c.Request.Context(), req.Profile)
	if errors.Is(err, service.ErrUnknownProfile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Review run failed", zap.String("profile", req.Profile), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "review run failed", "run": run})
		return
	}

	c.JSON(http.StatusCreated, run)
}

// ListRuns returns recent runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := h.reviewer.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "Failed to list runs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// GetRun returns one run
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.reviewer.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get run", err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRecords returns the records a run exported
func (h *Handler) GetRecords(c *gin.Context) {
	runID := c.Param("id")
	records, err := h.reviewer.GetRecords(c.Request.Context(), runID)
	if err != nil {
		h.fail(c, "Failed to get records", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":  runID,
		"records": records,
		"total":   len(records),
	})
}

// ImportVerdicts reads a reviewed CSV from the request body
func (h *Handler) ImportVerdicts(c *gin.Context) {
	runID := c.Param("id")
	reviewer := c.GetString(auth.ContextReviewer)
	n, err := h.reviewer.ImportVerdictsFrom(c.Request.Context(), runID, reviewer, c.Request.Body)
	if err != nil {
		h.fail(c, "Failed to import verdicts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   runID,
		"imported": n,
	})
}

// GetVerdicts returns the verdicts imported for a run
func (h *Handler) GetVerdicts(c *gin.Context) {
	runID := c.Param("id")
	verdicts, err := h.reviewer.GetVerdicts(c.Request.Context(), runID)
	if err != nil {
		h.fail(c, "Failed to get verdicts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   runID,
		"verdicts": verdicts,
		"total":    len(verdicts),
	})
}

// ExportCSV exports a run's records in the layout of its profile
func (h *Handler) ExportCSV(c *gin.Context) {
	runID := c.Param("id")

	var buf bytes.Buffer
	if err := h.reviewer.WriteRunCSV(c.Request.Context(), runID, &buf); err != nil {
		h.fail(c, "Failed to export CSV", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+runID+".csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// ExportJSON exports a run's records to JSON
func (h *Handler) ExportJSON(c *gin.Context) {
	runID := c.Param("id")
	records, err := h.reviewer.GetRecords(c.Request.Context(), runID)
	if err != nil {
		h.fail(c, "Failed to export JSON", err)
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename="+runID+".json")

	encoder := json.NewEncoder(c.Writer)
	encoder.SetIndent("", "  ")
	encoder.Encode(records)
}

// GetStats returns per-tier precision, optionally for one run
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.reviewer.Stats(c.Request.Context(), c.Query("run_id"))
	if err != nil {
		h.fail(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tiers": stats})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sarcasm-review",
		"version": "1.0.0",
	})
}

// fail maps service errors to status codes.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidReview), errors.Is(err, service.ErrNoLayout):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoRepository):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
