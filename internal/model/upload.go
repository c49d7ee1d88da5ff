package model

import (
	"time"

	"gorm.io/gorm"
)

// Upload представляет обработанную загрузку в базе данных
type Upload struct {
	ID               string `gorm:"primaryKey;type:varchar(16)" json:"id"`
	OriginalFilename string `gorm:"type:varchar(255);not null" json:"original_filename"`
	MediaKind        string `gorm:"type:varchar(16);not null;index" json:"media_kind"`
	OriginalURL      string `gorm:"type:varchar(500)" json:"original_url"`
	ResultURL        string `gorm:"type:varchar(500)" json:"result_url"`
	SizeBytes        int64  `gorm:"not null;default:0" json:"size_bytes"`

	// Статистика
	HelmetCount   int `gorm:"not null;default:0" json:"helmet_count"`
	NoHelmetCount int `gorm:"not null;default:0" json:"no_helmet_count"`
	TotalCount    int `gorm:"not null;default:0" json:"total_count"`

	// Только для видео
	FPS             int     `gorm:"not null;default:0" json:"fps"`
	TotalFrames     int     `gorm:"not null;default:0" json:"total_frames"`
	DurationSeconds float64 `gorm:"not null;default:0" json:"duration_seconds"`
	Resolution      string  `gorm:"type:varchar(32)" json:"resolution"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Детекции (для изображений)
	Detections []DetectionRow `gorm:"foreignKey:UploadID;constraint:OnDelete:CASCADE" json:"detections"`
}

// DetectionRow одна детекция изображения
type DetectionRow struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UploadID   string  `gorm:"type:varchar(16);not null;index" json:"upload_id"`
	ClassName  string  `gorm:"type:varchar(64);not null" json:"class"`
	ClassID    int     `gorm:"not null" json:"class_id"`
	Confidence float64 `gorm:"not null" json:"confidence"`
	X1         float64 `gorm:"not null" json:"x1"`
	Y1         float64 `gorm:"not null" json:"y1"`
	X2         float64 `gorm:"not null" json:"x2"`
	Y2         float64 `gorm:"not null" json:"y2"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName указывает имя таблицы для Upload
func (Upload) TableName() string {
	return "uploads"
}

// TableName указывает имя таблицы для DetectionRow
func (DetectionRow) TableName() string {
	return "detections"
}
