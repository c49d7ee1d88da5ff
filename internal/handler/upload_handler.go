package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"helmet-detector-go/internal/service"
	"helmet-detector-go/pkg/models"

	units "github.com/docker/go-units"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Processor конвейер обработки загрузок
type Processor interface {
	Process(ctx context.Context, request models.UploadRequest) (models.UploadResult, error)
}

// UploadHandler обрабатывает загрузку изображений и видео
type UploadHandler struct {
	pipeline      Processor
	maxUploadSize int64
	logger        *logrus.Logger
}

// NewUploadHandler создает новый экземпляр UploadHandler
func NewUploadHandler(pipeline Processor, maxUploadSize int64, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		pipeline:      pipeline,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// RegisterRoutes регистрирует страницу загрузки и POST /upload
func (h *UploadHandler) RegisterRoutes(router *gin.Engine) {
	tmpl := template.Must(template.ParseFS(templatesFS, "templates/index.html"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", h.Index)
	router.POST("/upload", h.Upload)
}

// Index отдает страницу загрузки
func (h *UploadHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":   "Helmet Detection",
		"Accept":  ".png,.jpg,.jpeg,.gif,.bmp,.mp4,.avi,.mov,.mkv",
		"MaxSize": units.HumanSize(float64(h.maxUploadSize)),
	})
}

// Upload принимает файл из поля формы "file" и запускает обработку
// @Summary Детекция касок
// @Description Находит людей в касках и без касок на изображении или видео
// @Tags detection
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Изображение (png, jpg, jpeg, gif, bmp) или видео (mp4, avi, mov, mkv)"
// @Success 200 {object} models.ImageResponse
// @Success 200 {object} models.VideoResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.writeError(c, h.formError(c, err))
		return
	}
	defer file.Close()

	h.logger.Infof("Получен файл %s (%s)", header.Filename, units.HumanSize(float64(header.Size)))

	// Обработка не прерывается, если клиент отключился
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.pipeline.Process(ctx, models.UploadRequest{
		Filename: header.Filename,
		Content:  file,
		Size:     header.Size,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// formError переводит ошибку разбора формы в ошибку конвейера
func (h *UploadHandler) formError(c *gin.Context, err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return service.NewTooLargeError(err)
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return service.NewValidationError("No file part")
	}
	if errors.Is(err, http.ErrMissingFile) {
		// Браузер отправляет пустое имя файла, если файл не выбран;
		// такая часть попадает в значения формы, а не в файлы
		if form := c.Request.MultipartForm; form != nil {
			if _, ok := form.Value["file"]; ok {
				return service.NewValidationError("No selected file")
			}
		}
		return service.NewValidationError("No file part")
	}
	return &service.PipelineError{Kind: service.KindValidation, Message: "Invalid multipart form", Err: err}
}

func (h *UploadHandler) writeError(c *gin.Context, err error) {
	kind := service.KindOf(err)

	response := models.ErrorResponse{Error: "Internal server error"}
	var perr *service.PipelineError
	if errors.As(err, &perr) {
		response.Error = perr.Message
		response.Details = perr.Details
		if kind == service.KindInternal && response.Details == "" && perr.Err != nil {
			response.Details = perr.Err.Error()
		}
	} else {
		response.Details = err.Error()
	}

	entry := h.logger.WithField("kind", kind.String())
	if kind.UserCorrectable() {
		entry.Warnf("Загрузка отклонена: %v", err)
	} else {
		entry.Errorf("Ошибка обработки загрузки: %v", err)
	}

	c.JSON(kind.HTTPStatus(), response)
}
