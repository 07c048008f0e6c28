package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classifier-service/internal/models"
	"classifier-service/internal/service"
)

// ClassifierService is the business logic behind the HTTP API
type ClassifierService interface {
	Classify(ctx context.Context, text string) (*models.PredictionResult, error)
	ClassifyBatch(ctx context.Context, texts []string) (*models.BatchPredictResponse, error)
	ModelComparison() []models.ComparisonRow
	Stats() models.Stats
	ModelInfo() models.ModelInfo
	ModelName() string
}

// Handler handles HTTP requests
type Handler struct {
	classifier ClassifierService
	logger     *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(classifier ClassifierService, logger *zap.Logger) *Handler {
	return &Handler{
		classifier: classifier,
		logger:     logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// Prediction endpoints
	r.POST("/predict", h.Predict)
	r.POST("/predict/batch", h.PredictBatch)

	api := r.Group("/api")
	{
		api.GET("/models", h.GetModels)
		api.GET("/stats", h.GetStats)
		api.GET("/model/info", h.GetModelInfo)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// Predict classifies a single text
func (h *Handler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := decodeBody(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	var text string
	if req.Text != nil {
		text = *req.Text
	}

	result, err := h.classifier.Classify(c.Request.Context(), text)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PredictBatch classifies several texts in one request
func (h *Handler) PredictBatch(c *gin.Context) {
	var req models.BatchPredictRequest
	if err := decodeBody(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	resp, err := h.classifier.ClassifyBatch(c.Request.Context(), req.Texts)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetModels returns the training-time model comparison table
func (h *Handler) GetModels(c *gin.Context) {
	rows := h.classifier.ModelComparison()
	if rows == nil {
		rows = []models.ComparisonRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// GetStats returns the descriptive project summary
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.classifier.Stats())
}

// GetModelInfo returns metadata about the loaded model
func (h *Handler) GetModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.classifier.ModelInfo())
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status: "healthy",
		Model:  h.classifier.ModelName(),
	})
}

// decodeBody reads exactly one JSON value from the request body.
// An empty body leaves v untouched; trailing data is an invalid body.
func decodeBody(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil {
		return nil
	}

	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return bindError(err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return bindError(err)
		}
		return service.ErrInvalidBody
	}
	return nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return service.ErrInvalidBody
}

func (h *Handler) fail(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, service.ErrEmptyText):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: service.NoTextMessage})
	case errors.Is(err, service.ErrInvalidBody):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
	case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrBatchTooLarge):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large"})
	default:
		h.logger.Error("Prediction failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
}
