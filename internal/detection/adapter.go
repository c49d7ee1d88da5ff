// Package detection оборачивает внешнюю модель детекции и приводит её ответ
// к стабильной схеме.
package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"helmet-detector-go/pkg/models"
)

// ErrOutputMissing модель не сохранила видео, которое можно найти
var ErrOutputMissing = errors.New("detection model did not produce an output video file")

// Model внешняя модель детекции
type Model interface {
	Predict(ctx context.Context, request models.PredictRequest) (*models.InferenceResponse, error)
}

// ImageDetections результат для изображения
type ImageDetections struct {
	Detections models.DetectionSet
	Annotated  image.Image
}

// VideoDetections результат для видео
type VideoDetections struct {
	Frames     []models.DetectionSet
	OutputPath string // Аннотированное видео, сохранённое моделью
	SaveDir    string // Каталог, который модель использовала для сохранения
}

// Adapter нормализует ответы модели
type Adapter struct {
	model     Model
	threshold float64
	annotator *Annotator
	logger    *logrus.Logger
}

// NewAdapter создает адаптер с порогом уверенности threshold
func NewAdapter(model Model, threshold float64, annotator *Annotator, logger *logrus.Logger) *Adapter {
	return &Adapter{
		model:     model,
		threshold: threshold,
		annotator: annotator,
		logger:    logger,
	}
}

// DetectImage запускает модель на изображении и рисует найденные рамки
func (a *Adapter) DetectImage(ctx context.Context, path string) (*ImageDetections, error) {
	resp, err := a.model.Predict(ctx, models.PredictRequest{
		Source:     path,
		Confidence: a.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("image prediction failed: %w", err)
	}

	var detections models.DetectionSet
	if len(resp.Results) > 0 {
		detections = a.normalize(resp.Names, resp.Results[0])
	} else {
		detections = models.DetectionSet{}
	}

	annotated, err := a.annotator.Annotate(path, detections)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate image: %w", err)
	}

	a.logger.Infof("Найдено %d объектов на изображении %s", len(detections), filepath.Base(path))
	return &ImageDetections{Detections: detections, Annotated: annotated}, nil
}

// DetectVideo запускает модель по всем кадрам видео. Модель сама сохраняет
// аннотированное видео; адаптер возвращает путь к нему.
func (a *Adapter) DetectVideo(ctx context.Context, path, workDir string) (*VideoDetections, error) {
	resp, err := a.model.Predict(ctx, models.PredictRequest{
		Source:     path,
		Confidence: a.threshold,
		Save:       true,
		Project:    filepath.Dir(workDir),
		Name:       filepath.Base(workDir),
	})
	if err != nil {
		return nil, fmt.Errorf("video prediction failed: %w", err)
	}

	frames := make([]models.DetectionSet, 0, len(resp.Results))
	for _, frame := range resp.Results {
		frames = append(frames, a.normalize(resp.Names, frame))
	}

	saveDir := resp.SaveDir
	if saveDir == "" {
		saveDir = workDir
	}
	a.logger.WithFields(logrus.Fields{
		"frames":   len(frames),
		"save_dir": saveDir,
	}).Info("Модель обработала видео")

	output, err := LocateOutput(resp.Output, saveDir, workDir)
	if err != nil {
		return nil, err
	}

	return &VideoDetections{Frames: frames, OutputPath: output, SaveDir: saveDir}, nil
}

// normalize отбрасывает рамки ниже порога и приводит координаты к x1<=x2, y1<=y2
func (a *Adapter) normalize(names map[int]string, frame models.InferenceFrame) models.DetectionSet {
	out := make(models.DetectionSet, 0, len(frame.Boxes))
	for _, box := range frame.Boxes {
		if len(box.XYXY) != 4 {
			a.logger.Warnf("Пропущена рамка с %d координатами", len(box.XYXY))
			continue
		}
		if box.Confidence < a.threshold {
			continue
		}

		conf := box.Confidence
		if conf > 1 {
			conf = 1
		}

		x1, y1, x2, y2 := box.XYXY[0], box.XYXY[1], box.XYXY[2], box.XYXY[3]
		if x1 > x2 {
			x1, x2 = x2, x1
		}
		if y1 > y2 {
			y1, y2 = y2, y1
		}

		out = append(out, models.Detection{
			ClassName:  className(names, box),
			ClassID:    box.Class,
			Confidence: conf,
			BBox:       models.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
		})
	}
	return out
}

func className(names map[int]string, box models.InferenceBox) string {
	if name, ok := names[box.Class]; ok && name != "" {
		return name
	}
	if box.Name != "" {
		return box.Name
	}
	return fmt.Sprintf("class_%d", box.Class)
}
