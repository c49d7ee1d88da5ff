//go:build gocv
// +build gocv

package video

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"helmet-detector-go/pkg/models"
)

// Prober читает метаданные видео через OpenCV
type Prober struct {
	logger *logrus.Logger
}

// NewProber создает OpenCV-пробер (сборка с тегом gocv)
func NewProber(logger *logrus.Logger) *Prober {
	return &Prober{logger: logger}
}

// Probe возвращает fps, число кадров и разрешение видео
func (p *Prober) Probe(_ context.Context, path string) (*models.VideoInfo, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	defer capture.Close()

	info := &models.VideoInfo{
		FPS:         int(capture.Get(gocv.VideoCaptureFPS)),
		TotalFrames: int(capture.Get(gocv.VideoCaptureFrameCount)),
		Width:       int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}

	p.logger.Debugf("opencv %s: %d fps, %d кадров, %s", path, info.FPS, info.TotalFrames, info.Resolution())
	return info, nil
}
