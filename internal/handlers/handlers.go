package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Brownie44l1/clothing-api/internal/classifier"
	"github.com/Brownie44l1/clothing-api/internal/prediction"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

type Predictor interface {
	Predict(ctx context.Context, requestID, imageURL string) (*prediction.Result, error)
}

type PredictRequest struct {
	URL string `json:"url"`
}

type Handler struct {
	predictor Predictor
	logger    *zap.Logger
}

func NewHandler(predictor Predictor, logger *zap.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		logger:    logger.Named("handlers"),
	}
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, h *Handler) {
	router.Use(RequestLogger(h.logger), CORS())
	router.GET("/health", h.Health)
	router.POST("/predict", h.Predict)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) Predict(c *gin.Context) {
	requestID := uuid.NewString()
	c.Header(RequestIDHeader, requestID)
	c.Set("request_id", requestID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON like {\"url\": \"...\"}"})
		return
	}
	if err := classifier.ValidateURL(req.URL); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "url must be an absolute http or https URL"})
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), requestID, req.URL)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, gin.H{"error": messageFor(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, classifier.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, classifier.ErrAcquisition):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, classifier.ErrInvalidInput):
		return "url must be an absolute http or https URL"
	case errors.Is(err, classifier.ErrAcquisition):
		return "failed to fetch image"
	case errors.Is(err, classifier.ErrShapeMismatch):
		return "model output does not match class list"
	default:
		return "prediction failed"
	}
}

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request through zap instead of gin's default writer.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := c.Get("request_id"); ok {
			fields = append(fields, zap.Any("request_id", id))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}
