package models

import (
	"fmt"
	"io"
)

// MediaKind тип загруженного файла
type MediaKind string

const (
	MediaRejected MediaKind = ""
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
)

// Классы модели, по которым считается статистика
const (
	ClassHelmet   = "Helmet"
	ClassNoHelmet = "NoHelmet"
)

// UploadRequest представляет загруженный пользователем файл
type UploadRequest struct {
	Filename string    // Имя файла от клиента (не доверенное)
	Content  io.Reader // Содержимое файла
	Size     int64     // Размер в байтах, если известен
}

// BBox координаты рамки в пикселях (левый верхний и правый нижний углы)
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width ширина рамки
func (b BBox) Width() float64 {
	return b.X2 - b.X1
}

// Height высота рамки
func (b BBox) Height() float64 {
	return b.Y2 - b.Y1
}

// Detection одно предсказание модели
type Detection struct {
	ClassName  string  `json:"class"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// DetectionSet упорядоченный набор детекций одного кадра
type DetectionSet []Detection

// DetectionStats агрегированная статистика по детекциям
type DetectionStats struct {
	Helmet   int `json:"helmet"`
	NoHelmet int `json:"no_helmet"`
	Total    int `json:"total"`
}

// VideoInfo метаданные исходного видео
type VideoInfo struct {
	FPS         int
	TotalFrames int
	Width       int
	Height      int
}

// DurationSeconds длительность видео, 0 если fps неизвестен
func (v VideoInfo) DurationSeconds() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return float64(v.TotalFrames) / float64(v.FPS)
}

// Resolution строка вида "1920x1080"
func (v VideoInfo) Resolution() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}
