package handler

import (
	"context"
	"net/http"
	"time"

	"helmet-detector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ModelHealthChecker проверяет доступность сервиса с моделью
type ModelHealthChecker interface {
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// HealthHandler отдает состояние сервиса
type HealthHandler struct {
	model    ModelHealthChecker
	database func() error // nil, если история отключена
	logger   *logrus.Logger
}

// NewHealthHandler создает новый экземпляр HealthHandler
func NewHealthHandler(model ModelHealthChecker, database func() error, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		model:    model,
		database: database,
		logger:   logger,
	}
}

// RegisterRoutes регистрирует /api/v1/health
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/health", h.CheckHealth)
}

// CheckHealth проверяет состояние сервиса
// @Summary Состояние сервиса
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/health [get]
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{"status": "healthy"}
	status := http.StatusOK

	modelHealth, err := h.model.CheckHealth(ctx)
	if err != nil {
		h.logger.Warnf("Сервис модели недоступен: %v", err)
		response["status"] = "unhealthy"
		response["model"] = gin.H{"status": "unavailable", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		response["model"] = modelHealth
	}

	if h.database != nil {
		if err := h.database(); err != nil {
			h.logger.Warnf("База данных недоступна: %v", err)
			response["status"] = "unhealthy"
			response["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			response["database"] = "ok"
		}
	}

	c.JSON(status, response)
}
