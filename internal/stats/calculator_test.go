package stats

import (
	"testing"

	"github.com/stretchr/testify/require"

	"helmet-detector-go/pkg/models"
)

func det(class string, conf float64) models.Detection {
	return models.Detection{ClassName: class, Confidence: conf}
}

func TestCalculator_Count(t *testing.T) {
	calc := NewCalculator()

	stats := calc.Count([]models.Detection{
		det("Helmet", 0.9),
		det("NoHelmet", 0.8),
		det("helmet", 0.7), // регистр учитывается
		det("Person", 0.6),
		det("Helmet", 0.5),
	})

	require.Equal(t, models.DetectionStats{Helmet: 2, NoHelmet: 1, Total: 5}, stats)
	require.LessOrEqual(t, stats.Helmet+stats.NoHelmet, stats.Total)
}

func TestCalculator_CountEmpty(t *testing.T) {
	require.Equal(t, models.DetectionStats{}, NewCalculator().Count(nil))
}

func TestCalculator_SampleUsesOnlyFirstFrames(t *testing.T) {
	calc := NewCalculator()
	frames := make([]models.DetectionSet, 0, 8)
	for i := 0; i < 8; i++ {
		frames = append(frames, models.DetectionSet{det("Helmet", 0.9), det("NoHelmet", 0.9)})
	}

	sampled := calc.Sample(frames, 5)
	require.Len(t, sampled, 10)

	require.Len(t, calc.Sample(frames[:2], 5), 4)
	require.Empty(t, calc.Sample(frames, 0))
	require.NotNil(t, calc.Sample(nil, 5))
}

func TestCalculator_Records(t *testing.T) {
	records := NewCalculator().Records([]models.Detection{{
		ClassName:  "Helmet",
		ClassID:    0,
		Confidence: 0.95512,
		BBox:       models.BBox{X1: 100.004, Y1: 150.456, X2: 200, Y2: 250.999},
	}})

	require.Len(t, records, 1)
	require.Equal(t, "Helmet", records[0].Class)
	require.InDelta(t, 95.51, records[0].Confidence, 1e-9)
	require.InDeltaSlice(t, []float64{100, 150.46, 200, 251}, records[0].BBox, 1e-9)

	require.NotNil(t, NewCalculator().Records(nil))
}

func TestCalculator_VideoInfo(t *testing.T) {
	calc := NewCalculator()

	info := calc.VideoInfo(models.VideoInfo{FPS: 30, TotalFrames: 100, Width: 1280, Height: 720}, 7)
	require.Equal(t, 30, info.FPS)
	require.InDelta(t, 3.33, info.DurationSeconds, 1e-9)
	require.Equal(t, "1280x720", info.Resolution)
	require.Equal(t, 7, info.SampleDetections)

	zero := calc.VideoInfo(models.VideoInfo{FPS: 0, TotalFrames: 100, Width: 640, Height: 480}, 0)
	require.Equal(t, 0.0, zero.DurationSeconds)
	require.Equal(t, "640x480", zero.Resolution)
}
