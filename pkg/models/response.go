package models

// UploadResult ответ успешной обработки загрузки
type UploadResult interface {
	MediaKind() MediaKind
}

// DetectionRecord детекция в формате ответа API
type DetectionRecord struct {
	Class      string    `json:"class"`
	Confidence float64   `json:"confidence"` // В процентах, 0-100
	BBox       []float64 `json:"bbox"`       // [x1, y1, x2, y2]
	ClassID    int       `json:"class_id"`
}

// ImageResponse ответ для изображения
type ImageResponse struct {
	Success      bool              `json:"success"`
	FileType     MediaKind         `json:"file_type"`
	OriginalFile string            `json:"original_file"`
	ResultFile   string            `json:"result_file"`
	Detections   []DetectionRecord `json:"detections"`
	Stats        DetectionStats    `json:"stats"`
}

// MediaKind реализует UploadResult
func (r *ImageResponse) MediaKind() MediaKind {
	return MediaImage
}

// VideoInfoResponse метаданные видео в ответе API
type VideoInfoResponse struct {
	FPS              int     `json:"fps"`
	TotalFrames      int     `json:"total_frames"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Resolution       string  `json:"resolution"`
	SampleDetections int     `json:"sample_detections"`
}

// VideoResponse ответ для видео
type VideoResponse struct {
	Success      bool              `json:"success"`
	FileType     MediaKind         `json:"file_type"`
	OriginalFile string            `json:"original_file"`
	ResultFile   string            `json:"result_file"`
	VideoInfo    VideoInfoResponse `json:"video_info"`
	Stats        DetectionStats    `json:"stats"`
	Message      string            `json:"message"`
}

// MediaKind реализует UploadResult
func (r *VideoResponse) MediaKind() MediaKind {
	return MediaVideo
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
