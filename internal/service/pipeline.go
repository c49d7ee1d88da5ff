package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"helmet-detector-go/internal/detection"
	"helmet-detector-go/internal/media"
	"helmet-detector-go/internal/stats"
	"helmet-detector-go/internal/storage"
	"helmet-detector-go/internal/video"
	"helmet-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Detector адаптер модели детекции
type Detector interface {
	DetectImage(ctx context.Context, path string) (*detection.ImageDetections, error)
	DetectVideo(ctx context.Context, path, workDir string) (*detection.VideoDetections, error)
}

// Transcoder перекодировщик видео
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) error
}

// Prober читает метаданные видео
type Prober interface {
	Probe(ctx context.Context, path string) (*models.VideoInfo, error)
}

// Pipeline обрабатывает загрузку от валидации до готового ответа
type Pipeline struct {
	detector     Detector
	transcoder   Transcoder
	prober       Prober
	artifacts    *storage.ArtifactWriter
	calc         *stats.Calculator
	recorder     Recorder
	sampleFrames int
	logger       *logrus.Logger
}

// NewPipeline создает конвейер. Все зависимости создаются один раз при старте
// и не меняются после этого.
func NewPipeline(detector Detector, transcoder Transcoder, prober Prober, artifacts *storage.ArtifactWriter, sampleFrames int, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		detector:     detector,
		transcoder:   transcoder,
		prober:       prober,
		artifacts:    artifacts,
		calc:         stats.NewCalculator(),
		sampleFrames: sampleFrames,
		logger:       logger,
	}
}

// SetRecorder подключает сохранение истории загрузок
func (p *Pipeline) SetRecorder(recorder Recorder) {
	p.recorder = recorder
}

// upload состояние одного запроса
type upload struct {
	fileID     string
	original   string
	filename   string
	path       string
	size       int64
	detections []models.Detection
	log        *logrus.Entry
}

// Process обрабатывает загрузку. Ошибки всегда имеют тип *PipelineError.
func (p *Pipeline) Process(ctx context.Context, request models.UploadRequest) (models.UploadResult, error) {
	if request.Filename == "" {
		return nil, NewValidationError("No selected file")
	}
	if !media.Allowed(request.Filename) {
		return nil, NewValidationError("File type not allowed")
	}
	if request.Content == nil {
		return nil, NewValidationError("No file part")
	}

	u := &upload{
		fileID:   p.artifacts.NewFileID(),
		original: request.Filename,
		filename: media.SanitizeFilename(request.Filename),
	}
	u.path = p.artifacts.UploadPath(u.fileID, u.filename)
	u.log = p.logger.WithFields(logrus.Fields{"file_id": u.fileID, "filename": u.filename})

	size, err := p.artifacts.SaveUpload(u.path, request.Content)
	if err != nil {
		return nil, &PipelineError{Kind: KindInternal, Message: "Failed to save uploaded file", Err: err}
	}
	u.size = size

	start := time.Now()
	var result models.UploadResult
	switch media.Classify(u.filename) {
	case models.MediaImage:
		result, err = p.processImage(ctx, u)
	case models.MediaVideo:
		result, err = p.processVideo(ctx, u)
	default:
		err = NewValidationError("Unsupported file type")
	}
	if err != nil {
		u.log.WithField("kind", KindOf(err).String()).Errorf("Ошибка обработки: %v", err)
		return nil, err
	}

	u.log.Infof("Загрузка обработана за %v", time.Since(start))
	p.record(ctx, u, result)
	return result, nil
}

func (p *Pipeline) processImage(ctx context.Context, u *upload) (models.UploadResult, error) {
	res, err := p.detector.DetectImage(ctx, u.path)
	if err != nil {
		return nil, &PipelineError{Kind: KindInternal, Message: "Detection failed", Err: err}
	}

	resultPath := p.artifacts.ImageResultPath(u.fileID, u.filename)
	if err := p.artifacts.SaveImage(resultPath, res.Annotated); err != nil {
		return nil, &PipelineError{Kind: KindInternal, Message: "Failed to save annotated image", Err: err}
	}

	u.detections = res.Detections
	return &models.ImageResponse{
		Success:      true,
		FileType:     models.MediaImage,
		OriginalFile: p.artifacts.PublicURL(u.path),
		ResultFile:   p.artifacts.PublicURL(resultPath),
		Detections:   p.calc.Records(res.Detections),
		Stats:        p.calc.Count(res.Detections),
	}, nil
}

func (p *Pipeline) processVideo(ctx context.Context, u *upload) (models.UploadResult, error) {
	// Исходное видео перекодируется до запуска модели: без него нечего показывать
	playablePath := p.artifacts.PlayableOriginalPath(u.fileID, u.filename)
	if err := p.transcoder.Transcode(ctx, u.path, playablePath); err != nil {
		return nil, transcodeError("Failed to convert original video for browser playback", err)
	}

	workDir := p.artifacts.VideoWorkDir(u.fileID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, &PipelineError{Kind: KindInternal, Message: "Failed to prepare model output directory", Err: err}
	}

	det, err := p.detector.DetectVideo(ctx, u.path, workDir)
	if err != nil {
		if errors.Is(err, detection.ErrOutputMissing) {
			return nil, &PipelineError{
				Kind:    KindModelOutputMissing,
				Message: "Detection model did not produce an output video file",
				Err:     err,
			}
		}
		return nil, &PipelineError{Kind: KindInternal, Message: "Detection failed", Err: err}
	}
	u.log.Debugf("Видео модели: %s", det.OutputPath)

	resultPath := p.artifacts.VideoResultPath(u.fileID, u.filename)
	if err := p.transcoder.Transcode(ctx, det.OutputPath, resultPath); err != nil {
		return nil, transcodeError("FFmpeg conversion failed", err)
	}

	cleanup := []string{workDir}
	if det.SaveDir != workDir && p.artifacts.WithinResults(det.SaveDir) {
		cleanup = append(cleanup, det.SaveDir)
	}
	p.artifacts.Cleanup(cleanup...)

	// Метаданные берутся из исходного файла, а не из результата модели
	info, err := p.prober.Probe(ctx, u.path)
	if err != nil {
		u.log.Warnf("Не удалось прочитать метаданные видео: %v", err)
		info = &models.VideoInfo{}
	}

	sampled := p.calc.Sample(det.Frames, p.sampleFrames)
	u.detections = sampled

	return &models.VideoResponse{
		Success:      true,
		FileType:     models.MediaVideo,
		OriginalFile: p.artifacts.PublicURL(playablePath),
		ResultFile:   p.artifacts.PublicURL(resultPath),
		VideoInfo:    p.calc.VideoInfo(*info, len(sampled)),
		Stats:        p.calc.Count(sampled),
		Message:      fmt.Sprintf("Video processed! %d frames at %dFPS.", info.TotalFrames, info.FPS),
	}, nil
}

func (p *Pipeline) record(ctx context.Context, u *upload, result models.UploadResult) {
	if p.recorder == nil {
		return
	}
	err := p.recorder.Record(ctx, UploadRecord{
		FileID:           u.fileID,
		OriginalFilename: u.original,
		Size:             u.size,
		Result:           result,
		Detections:       u.detections,
	})
	if err != nil {
		u.log.Warnf("Не удалось сохранить историю загрузки: %v", err)
	}
}

func transcodeError(message string, err error) *PipelineError {
	details := ""
	var terr *video.TranscodeError
	if errors.As(err, &terr) {
		details = terr.Stderr
	}
	if details == "" {
		details = video.DiagnosticTail(err.Error(), video.DiagnosticTailLimit)
	}
	return &PipelineError{Kind: KindTranscode, Message: message, Details: details, Err: err}
}
