package service

import (
	"context"
	"fmt"

	"helmet-detector-go/internal/model"
	"helmet-detector-go/internal/repository"
	"helmet-detector-go/internal/storage"
	"helmet-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Recorder сохраняет результат обработки
type Recorder interface {
	Record(ctx context.Context, record UploadRecord) error
}

// UploadRecord данные для записи в историю
type UploadRecord struct {
	FileID           string
	OriginalFilename string
	Size             int64
	Result           models.UploadResult
	Detections       []models.Detection
}

// HistoryService сервис для работы с историей загрузок
type HistoryService struct {
	uploadRepo repository.UploadRepository
	artifacts  *storage.ArtifactWriter
	logger     *logrus.Logger
}

// NewHistoryService создает новый сервис истории
func NewHistoryService(uploadRepo repository.UploadRepository, artifacts *storage.ArtifactWriter, logger *logrus.Logger) *HistoryService {
	return &HistoryService{
		uploadRepo: uploadRepo,
		artifacts:  artifacts,
		logger:     logger,
	}
}

// Record сохраняет загрузку в базе данных
func (s *HistoryService) Record(_ context.Context, record UploadRecord) error {
	upload := &model.Upload{
		ID:               record.FileID,
		OriginalFilename: record.OriginalFilename,
		SizeBytes:        record.Size,
	}

	switch r := record.Result.(type) {
	case *models.ImageResponse:
		upload.MediaKind = string(models.MediaImage)
		upload.OriginalURL = r.OriginalFile
		upload.ResultURL = r.ResultFile
		upload.HelmetCount = r.Stats.Helmet
		upload.NoHelmetCount = r.Stats.NoHelmet
		upload.TotalCount = r.Stats.Total
	case *models.VideoResponse:
		upload.MediaKind = string(models.MediaVideo)
		upload.OriginalURL = r.OriginalFile
		upload.ResultURL = r.ResultFile
		upload.HelmetCount = r.Stats.Helmet
		upload.NoHelmetCount = r.Stats.NoHelmet
		upload.TotalCount = r.Stats.Total
		upload.FPS = r.VideoInfo.FPS
		upload.TotalFrames = r.VideoInfo.TotalFrames
		upload.DurationSeconds = r.VideoInfo.DurationSeconds
		upload.Resolution = r.VideoInfo.Resolution
	default:
		return fmt.Errorf("unsupported result type %T", record.Result)
	}

	// Для видео сохраняется только выборка первых кадров
	for _, d := range record.Detections {
		upload.Detections = append(upload.Detections, model.DetectionRow{
			ClassName:  d.ClassName,
			ClassID:    d.ClassID,
			Confidence: d.Confidence,
			X1:         d.BBox.X1,
			Y1:         d.BBox.Y1,
			X2:         d.BBox.X2,
			Y2:         d.BBox.Y2,
		})
	}

	if err := s.uploadRepo.Create(upload); err != nil {
		return fmt.Errorf("failed to save upload to database: %w", err)
	}

	s.logger.Infof("Загрузка %s сохранена в истории (%d детекций)", upload.ID, len(upload.Detections))
	return nil
}

// GetUpload получает загрузку по ID
func (s *HistoryService) GetUpload(id string) (*UploadSummary, error) {
	upload, err := s.uploadRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return modelToSummary(upload), nil
}

// ListUploads получает список загрузок с пагинацией
func (s *HistoryService) ListUploads(page, pageSize int) (*ListUploadsResponse, error) {
	uploads, total, err := s.uploadRepo.List(page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка загрузок: %v", err)
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	response := &ListUploadsResponse{
		Uploads: make([]UploadSummary, 0, len(uploads)),
		Total:   total,
		Page:    page,
		Size:    pageSize,
	}
	for _, upload := range uploads {
		response.Uploads = append(response.Uploads, *modelToSummary(upload))
	}
	return response, nil
}

// DeleteUpload удаляет загрузку из истории вместе с файлами на диске
func (s *HistoryService) DeleteUpload(id string) error {
	upload, err := s.uploadRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get upload for deletion: %w", err)
	}

	if err := s.uploadRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete upload from database: %w", err)
	}

	// Файлы удаляются после записи в БД: потерянный файл лучше висячей записи
	s.artifacts.Remove(upload.OriginalURL, upload.ResultURL)
	// Для видео исходная загрузка хранится отдельно от перекодированной копии
	s.artifacts.RemoveUploads(upload.ID)

	s.logger.Infof("Загрузка %s удалена", id)
	return nil
}

// modelToSummary преобразует модель базы данных в ответ API
func modelToSummary(upload *model.Upload) *UploadSummary {
	summary := &UploadSummary{
		ID:               upload.ID,
		OriginalFilename: upload.OriginalFilename,
		FileType:         models.MediaKind(upload.MediaKind),
		OriginalFile:     upload.OriginalURL,
		ResultFile:       upload.ResultURL,
		SizeBytes:        upload.SizeBytes,
		Stats: models.DetectionStats{
			Helmet:   upload.HelmetCount,
			NoHelmet: upload.NoHelmetCount,
			Total:    upload.TotalCount,
		},
		CreatedAt: upload.CreatedAt,
	}

	if upload.MediaKind == string(models.MediaVideo) {
		summary.VideoInfo = &models.VideoInfoResponse{
			FPS:              upload.FPS,
			TotalFrames:      upload.TotalFrames,
			DurationSeconds:  upload.DurationSeconds,
			Resolution:       upload.Resolution,
			SampleDetections: upload.TotalCount,
		}
	}

	for _, d := range upload.Detections {
		summary.Detections = append(summary.Detections, models.Detection{
			ClassName:  d.ClassName,
			ClassID:    d.ClassID,
			Confidence: d.Confidence,
			BBox:       models.BBox{X1: d.X1, Y1: d.Y1, X2: d.X2, Y2: d.Y2},
		})
	}
	return summary
}
