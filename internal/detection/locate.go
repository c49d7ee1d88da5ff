package detection

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"helmet-detector-go/internal/media"
)

// LocateOutput находит видео, сохранённое моделью.
// Сначала используется путь, о котором сообщила модель; если его нет,
// каталоги обходятся по порядку до первого файла с расширением видео.
func LocateOutput(reported string, dirs ...string) (string, error) {
	if reported != "" && media.IsVideoFile(reported) {
		if info, err := os.Stat(reported); err == nil && !info.IsDir() {
			return reported, nil
		}
	}

	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		clean := filepath.Clean(dir)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}

		found, err := findFirstVideo(clean)
		if err != nil {
			return "", err
		}
		if found != "" {
			return found, nil
		}
	}
	return "", ErrOutputMissing
}

func findFirstVideo(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			// Нечитаемые подкаталоги пропускаем
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && media.IsVideoFile(path) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}
