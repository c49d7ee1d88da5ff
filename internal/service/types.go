package service

import (
	"time"

	"helmet-detector-go/pkg/models"
)

// UploadSummary запись истории загрузок
type UploadSummary struct {
	ID               string                    `json:"id"`
	OriginalFilename string                    `json:"original_filename"`
	FileType         models.MediaKind          `json:"file_type"`
	OriginalFile     string                    `json:"original_file"`
	ResultFile       string                    `json:"result_file"`
	SizeBytes        int64                     `json:"size_bytes"`
	Stats            models.DetectionStats     `json:"stats"`
	VideoInfo        *models.VideoInfoResponse `json:"video_info,omitempty"`
	Detections       []models.Detection        `json:"detections,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// ListUploadsResponse ответ со списком загрузок
type ListUploadsResponse struct {
	Uploads []UploadSummary `json:"uploads"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}
