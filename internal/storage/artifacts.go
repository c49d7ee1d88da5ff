package storage

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	units "github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"helmet-detector-go/internal/media"
)

// ArtifactWriter управляет файлами загрузок и результатов в каталоге static
type ArtifactWriter struct {
	staticDir string
	uploadDir string
	resultDir string
	logger    *logrus.Logger
}

// NewArtifactWriter создает writer и каталоги для загрузок и результатов
func NewArtifactWriter(staticDir, uploadDir, resultDir string, logger *logrus.Logger) (*ArtifactWriter, error) {
	for _, dir := range []string{staticDir, uploadDir, resultDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &ArtifactWriter{
		staticDir: staticDir,
		uploadDir: uploadDir,
		resultDir: resultDir,
		logger:    logger,
	}, nil
}

// NewFileID генерирует короткий идентификатор загрузки (8 символов uuid)
func (w *ArtifactWriter) NewFileID() string {
	return uuid.New().String()[:8]
}

// UploadPath путь исходного файла: uploads/<id>_<name>
func (w *ArtifactWriter) UploadPath(fileID, filename string) string {
	return filepath.Join(w.uploadDir, fmt.Sprintf("%s_%s", fileID, filename))
}

// ImageResultPath путь аннотированного изображения: results/result_<id>_<name>
func (w *ArtifactWriter) ImageResultPath(fileID, filename string) string {
	return filepath.Join(w.resultDir, fmt.Sprintf("result_%s_%s", fileID, filename))
}

// PlayableOriginalPath путь исходного видео, перекодированного для браузера
func (w *ArtifactWriter) PlayableOriginalPath(fileID, filename string) string {
	return filepath.Join(w.uploadDir, fmt.Sprintf("orig_%s_%s.mp4", fileID, media.Stem(filename)))
}

// VideoResultPath путь итогового аннотированного видео
func (w *ArtifactWriter) VideoResultPath(fileID, filename string) string {
	return filepath.Join(w.resultDir, fmt.Sprintf("result_%s_%s.mp4", fileID, media.Stem(filename)))
}

// VideoWorkDir рабочий каталог модели для видео
func (w *ArtifactWriter) VideoWorkDir(fileID string) string {
	return filepath.Join(w.resultDir, fmt.Sprintf("video_%s", fileID))
}

// SaveUpload сохраняет загруженный файл по пути path
func (w *ArtifactWriter) SaveUpload(path string, content io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, content)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write upload data: %w", err)
	}

	w.logger.Infof("Файл сохранен: %s (%s)", path, units.HumanSize(float64(written)))
	return written, nil
}

// SaveImage кодирует изображение в формат, определяемый расширением path
func (w *ArtifactWriter) SaveImage(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// PublicURL превращает путь внутри static в URL вида /static/...
func (w *ArtifactWriter) PublicURL(path string) string {
	rel, err := filepath.Rel(w.staticDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/static/" + filepath.ToSlash(rel)
}

// WithinResults сообщает, лежит ли путь внутри каталога результатов
func (w *ArtifactWriter) WithinResults(path string) bool {
	rel, err := filepath.Rel(w.resultDir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Cleanup удаляет рабочие каталоги модели вместе с содержимым.
// Операция не возвращает ошибок: неудачи только логируются и
// не влияют на результат запроса.
func (w *ArtifactWriter) Cleanup(dirs ...string) {
	var errs error
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		errs = multierr.Append(errs, removeDir(dir))
	}

	for _, err := range multierr.Errors(errs) {
		w.logger.Warnf("Не удалось удалить рабочие файлы модели: %v", err)
	}
}

func removeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var errs error
	for _, entry := range entries {
		errs = multierr.Append(errs, os.RemoveAll(filepath.Join(dir, entry.Name())))
	}
	return multierr.Append(errs, os.Remove(dir))
}

// Remove удаляет файлы по публичным URL, ошибки логируются
func (w *ArtifactWriter) Remove(publicURLs ...string) {
	for _, u := range publicURLs {
		if u == "" || !strings.HasPrefix(u, "/static/") {
			continue
		}
		path := filepath.Join(w.staticDir, filepath.FromSlash(strings.TrimPrefix(u, "/static/")))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.logger.Warnf("Не удалось удалить файл %s: %v", path, err)
			continue
		}
		w.logger.Infof("Файл %s удален", path)
	}
}

// RemoveUploads удаляет все исходные файлы загрузки с данным идентификатором
func (w *ArtifactWriter) RemoveUploads(fileID string) {
	if fileID == "" || strings.ContainsAny(fileID, `*?[\/`) {
		return
	}
	matches, err := filepath.Glob(filepath.Join(w.uploadDir, fileID+"_*"))
	if err != nil {
		w.logger.Warnf("Не удалось найти файлы загрузки %s: %v", fileID, err)
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.logger.Warnf("Не удалось удалить файл %s: %v", path, err)
		}
	}
}
