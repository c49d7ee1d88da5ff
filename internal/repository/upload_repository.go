package repository

import (
	"errors"
	"fmt"

	"helmet-detector-go/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("upload not found")

// UploadRepository интерфейс для работы с историей загрузок
type UploadRepository interface {
	Create(upload *model.Upload) error
	GetByID(id string) (*model.Upload, error)
	List(page, pageSize int) ([]*model.Upload, int64, error)
	Delete(id string) error
}

// uploadRepository реализация UploadRepository
type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository создает новый instance UploadRepository
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{
		db: db,
	}
}

// Create сохраняет загрузку вместе с детекциями
func (r *uploadRepository) Create(upload *model.Upload) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	detections := upload.Detections
	upload.Detections = nil

	if err := tx.Create(upload).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create upload: %w", err)
	}

	for i := range detections {
		detections[i].ID = 0 // auto-increment
		detections[i].UploadID = upload.ID
	}
	if len(detections) > 0 {
		if err := tx.Create(&detections).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create detections: %w", err)
		}
	}
	upload.Detections = detections

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID получает загрузку по ID
func (r *uploadRepository) GetByID(id string) (*model.Upload, error) {
	var upload model.Upload
	err := r.db.Preload("Detections").Where("id = ?", id).First(&upload).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("upload %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return &upload, nil
}

// List получает список загрузок с пагинацией, новые первыми
func (r *uploadRepository) List(page, pageSize int) ([]*model.Upload, int64, error) {
	var uploads []*model.Upload
	var total int64

	if err := r.db.Model(&model.Upload{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count uploads: %w", err)
	}

	offset := (page - 1) * pageSize
	err := r.db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&uploads).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list uploads: %w", err)
	}

	return uploads, total, nil
}

// Delete удаляет загрузку и ее детекции
func (r *uploadRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Where("upload_id = ?", id).Delete(&model.DetectionRow{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	result := tx.Where("id = ?", id).Delete(&model.Upload{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete upload: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
