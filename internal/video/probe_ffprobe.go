//go:build !gocv
// +build !gocv

package video

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"helmet-detector-go/pkg/models"
)

// Prober читает метаданные видео через ffprobe
type Prober struct {
	logger *logrus.Logger
}

// NewProber создает ffprobe-пробер (сборка без тега gocv)
func NewProber(logger *logrus.Logger) *Prober {
	return &Prober{logger: logger}
}

// Probe возвращает fps, число кадров и разрешение видео
func (p *Prober) Probe(ctx context.Context, path string) (*models.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	raw, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	info, err := ParseProbe(raw)
	if err != nil {
		return nil, err
	}

	p.logger.Debugf("ffprobe %s: %d fps, %d кадров, %s", path, info.FPS, info.TotalFrames, info.Resolution())
	return info, nil
}
