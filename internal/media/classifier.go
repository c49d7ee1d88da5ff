// Package media определяет тип загруженного файла по расширению.
package media

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"helmet-detector-go/pkg/models"
)

var (
	imageExtensions = map[string]struct{}{"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}}
	videoExtensions = map[string]struct{}{"mp4": {}, "avi": {}, "mov": {}, "mkv": {}}
)

// VideoExtensions расширения контейнеров, которые может записать модель
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// Extension возвращает расширение после последней точки в нижнем регистре.
// Второе значение false, если точки нет.
func Extension(filename string) (string, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", false
	}
	return strings.ToLower(filename[idx+1:]), true
}

// Classify определяет тип файла. Чистая функция без ввода-вывода.
func Classify(filename string) models.MediaKind {
	ext, ok := Extension(filename)
	if !ok {
		return models.MediaRejected
	}
	if _, ok := imageExtensions[ext]; ok {
		return models.MediaImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return models.MediaVideo
	}
	return models.MediaRejected
}

// Allowed сообщает, входит ли расширение в список разрешённых
func Allowed(filename string) bool {
	return Classify(filename) != models.MediaRejected
}

// IsVideoFile проверяет путь по расширениям видеоконтейнеров
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range VideoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// SanitizeFilename делает имя файла безопасным для записи на диск:
// только ASCII буквы, цифры, '_', '-', '.', без путей и ведущих точек.
// Если при очистке теряется имя или меняется тип файла,
// возвращается "upload.<ext>".
func SanitizeFilename(filename string) string {
	kind := Classify(filename)
	ext, _ := Extension(filename)

	cleaned := secureFilename(filename)
	if cleaned == "" || Classify(cleaned) != kind {
		if ext == "" {
			return "upload"
		}
		return "upload." + ext
	}
	return cleaned
}

func secureFilename(filename string) string {
	decomposed := norm.NFKD.String(filename)

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r == '/' || r == '\\':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	joined := strings.Join(words, "_")

	var out strings.Builder
	for _, r := range joined {
		if r == '_' || r == '-' || r == '.' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			out.WriteRune(r)
		}
	}
	return strings.Trim(out.String(), "._")
}

// Stem имя файла без расширения
func Stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
