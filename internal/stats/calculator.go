package stats

import (
	"math"

	"github.com/samber/lo"

	"helmet-detector-go/pkg/models"
)

// Calculator считает статистику по детекциям
type Calculator struct {
	helmetClass   string
	noHelmetClass string
}

// NewCalculator создает калькулятор для классов Helmet/NoHelmet
func NewCalculator() *Calculator {
	return &Calculator{
		helmetClass:   models.ClassHelmet,
		noHelmetClass: models.ClassNoHelmet,
	}
}

// Count считает статистику по набору детекций.
// Сравнение имён классов точное и чувствительное к регистру,
// прочие классы входят только в Total.
func (c *Calculator) Count(detections []models.Detection) models.DetectionStats {
	return models.DetectionStats{
		Helmet: lo.CountBy(detections, func(d models.Detection) bool {
			return d.ClassName == c.helmetClass
		}),
		NoHelmet: lo.CountBy(detections, func(d models.Detection) bool {
			return d.ClassName == c.noHelmetClass
		}),
		Total: len(detections),
	}
}

// Sample объединяет детекции первых maxFrames кадров.
// Это демонстрационная выборка, а не статистика по всему видео.
func (c *Calculator) Sample(frames []models.DetectionSet, maxFrames int) []models.Detection {
	if maxFrames > len(frames) {
		maxFrames = len(frames)
	}
	if maxFrames <= 0 {
		return []models.Detection{}
	}
	return lo.Flatten(lo.Map(frames[:maxFrames], func(set models.DetectionSet, _ int) []models.Detection {
		return set
	}))
}

// Records преобразует детекции в формат ответа API:
// уверенность в процентах, координаты с точностью до двух знаков
func (c *Calculator) Records(detections []models.Detection) []models.DetectionRecord {
	records := make([]models.DetectionRecord, 0, len(detections))
	for _, d := range detections {
		records = append(records, models.DetectionRecord{
			Class:      d.ClassName,
			Confidence: Round2(d.Confidence * 100),
			BBox: []float64{
				Round2(d.BBox.X1),
				Round2(d.BBox.Y1),
				Round2(d.BBox.X2),
				Round2(d.BBox.Y2),
			},
			ClassID: d.ClassID,
		})
	}
	return records
}

// VideoInfo готовит метаданные видео для ответа
func (c *Calculator) VideoInfo(info models.VideoInfo, sampled int) models.VideoInfoResponse {
	return models.VideoInfoResponse{
		FPS:              info.FPS,
		TotalFrames:      info.TotalFrames,
		DurationSeconds:  Round2(info.DurationSeconds()),
		Resolution:       info.Resolution(),
		SampleDetections: sampled,
	}
}

// Round2 округляет до двух знаков после запятой
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
