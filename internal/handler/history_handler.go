package handler

import (
	"errors"
	"net/http"
	"strconv"

	"helmet-detector-go/internal/repository"
	"helmet-detector-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HistoryStore история обработанных загрузок
type HistoryStore interface {
	ListUploads(page, pageSize int) (*service.ListUploadsResponse, error)
	GetUpload(id string) (*service.UploadSummary, error)
	DeleteUpload(id string) error
}

// HistoryHandler обрабатывает HTTP запросы для работы с историей загрузок
type HistoryHandler struct {
	history HistoryStore
	logger  *logrus.Logger
}

// NewHistoryHandler создает новый экземпляр HistoryHandler
func NewHistoryHandler(history HistoryStore, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// RegisterRoutes регистрирует маршруты истории
func (h *HistoryHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/uploads", h.ListUploads)
		api.GET("/uploads/:id", h.GetUpload)
		api.DELETE("/uploads/:id", h.DeleteUpload)
	}
}

// ListUploads возвращает список загрузок с пагинацией
// @Summary История загрузок
// @Tags history
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param size query int false "Размер страницы" default(10)
// @Success 200 {object} service.ListUploadsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/uploads [get]
func (h *HistoryHandler) ListUploads(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	response, err := h.history.ListUploads(page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка загрузок: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list uploads"})
		return
	}

	h.logger.Infof("Возвращено %d загрузок из %d", len(response.Uploads), response.Total)
	c.JSON(http.StatusOK, response)
}

// GetUpload возвращает загрузку по ID
// @Summary Загрузка по ID
// @Tags history
// @Produce json
// @Param id path string true "ID загрузки"
// @Success 200 {object} service.UploadSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/uploads/{id} [get]
func (h *HistoryHandler) GetUpload(c *gin.Context) {
	id := c.Param("id")

	upload, err := h.history.GetUpload(id)
	if err != nil {
		h.respondLookupError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, upload)
}

// DeleteUpload удаляет загрузку и ее файлы
// @Summary Удаление загрузки
// @Tags history
// @Produce json
// @Param id path string true "ID загрузки"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/uploads/{id} [delete]
func (h *HistoryHandler) DeleteUpload(c *gin.Context) {
	id := c.Param("id")

	if err := h.history.DeleteUpload(id); err != nil {
		h.respondLookupError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upload deleted"})
}

func (h *HistoryHandler) respondLookupError(c *gin.Context, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
		return
	}
	h.logger.Errorf("Ошибка работы с загрузкой %s: %v", id, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access upload history"})
}
