// Команда mockmodel поднимает сервис с тем же HTTP контрактом, что и
// Python сервис с моделью, но возвращает заранее заданные рамки.
// Нужна для локального запуска и проверки конвейера без GPU.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"helmet-detector-go/internal/media"
	"helmet-detector-go/pkg/models"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	version     = "mock-1.0.0"
	videoFrames = 10
)

var classNames = map[int]string{0: models.ClassHelmet, 1: models.ClassNoHelmet}

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	port := os.Getenv("MOCK_MODEL_PORT")
	if port == "" {
		port = "8000"
	}

	router := newRouter(logger)
	logger.Infof("Mock модель запущена на порту %s", port)
	if err := router.Run(":" + port); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

func newRouter(logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy", ModelLoaded: true, Version: version})
	})
	router.POST("/predict", func(c *gin.Context) {
		var request models.PredictRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := predict(request)
		if err != nil {
			logger.Errorf("Ошибка детекции %s: %v", request.Source, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	})
	return router
}

func predict(request models.PredictRequest) (*models.InferenceResponse, error) {
	if _, err := os.Stat(request.Source); err != nil {
		return nil, fmt.Errorf("source not found: %w", err)
	}

	resp := &models.InferenceResponse{Names: classNames}
	switch media.Classify(request.Source) {
	case models.MediaImage:
		img, err := imaging.Open(request.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		bounds := img.Bounds()
		resp.Results = []models.InferenceFrame{{Boxes: cannedBoxes(float64(bounds.Dx()), float64(bounds.Dy()), request.Confidence)}}
	case models.MediaVideo:
		for i := 0; i < videoFrames; i++ {
			resp.Results = append(resp.Results, models.InferenceFrame{Boxes: cannedBoxes(640, 480, request.Confidence)})
		}
		if request.Save {
			saveDir := filepath.Join(request.Project, request.Name)
			output := filepath.Join(saveDir, media.Stem(filepath.Base(request.Source))+".avi")
			if err := copyFile(request.Source, output); err != nil {
				return nil, err
			}
			resp.SaveDir = saveDir
			resp.Output = output
		}
	default:
		return nil, fmt.Errorf("unsupported source %s", request.Source)
	}
	return resp, nil
}

// cannedBoxes две рамки в левой и правой половине кадра
func cannedBoxes(width, height, threshold float64) []models.InferenceBox {
	boxes := []models.InferenceBox{
		{Class: 0, Confidence: 0.955, XYXY: []float64{width * 0.1, height * 0.1, width * 0.4, height * 0.6}},
		{Class: 1, Confidence: 0.872, XYXY: []float64{width * 0.55, height * 0.15, width * 0.9, height * 0.7}},
	}
	out := boxes[:0]
	for _, b := range boxes {
		if b.Confidence >= threshold {
			out = append(out, b)
		}
	}
	return out
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create save dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
