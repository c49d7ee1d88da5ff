// Package video перекодирует видео в формат, который воспроизводит браузер,
// и читает метаданные исходного файла.
package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DiagnosticTailLimit сколько последних символов stderr ffmpeg попадает в ошибку
const DiagnosticTailLimit = 500

// TranscodeError ffmpeg завершился с ошибкой
type TranscodeError struct {
	Input  string
	Output string
	Stderr string // Последние DiagnosticTailLimit символов вывода ffmpeg
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("ffmpeg failed to transcode %s: %v", e.Input, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// Transcoder перекодирует видео через ffmpeg
type Transcoder struct {
	videoCodec  string
	pixelFormat string
	logger      *logrus.Logger
}

// NewTranscoder создает транскодер с фиксированными кодеком и форматом пикселей
func NewTranscoder(videoCodec, pixelFormat string, logger *logrus.Logger) *Transcoder {
	return &Transcoder{
		videoCodec:  videoCodec,
		pixelFormat: pixelFormat,
		logger:      logger,
	}
}

// Transcode выполняет ffmpeg -i input -c:v <codec> -pix_fmt <fmt> output -y.
// Повторных попыток нет.
func (t *Transcoder) Transcode(ctx context.Context, input, output string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return &TranscodeError{Input: input, Output: output, Err: err}
	}

	var stderr bytes.Buffer
	stream := t.stream(input, output).WithErrorOutput(&stderr)
	stream.Context = ctx

	start := time.Now()
	if err := stream.Run(); err != nil {
		tail := DiagnosticTail(stderr.String(), DiagnosticTailLimit)
		t.logger.WithFields(logrus.Fields{
			"input":  input,
			"output": output,
			"stderr": tail,
		}).Errorf("Ошибка ffmpeg: %v", err)
		return &TranscodeError{Input: input, Output: output, Stderr: tail, Err: err}
	}

	t.logger.Infof("Видео %s перекодировано в %s за %v", filepath.Base(input), filepath.Base(output), time.Since(start))
	return nil
}

func (t *Transcoder) stream(input, output string) *ffmpeg.Stream {
	return ffmpeg.Input(input).
		Output(output, ffmpeg.KwArgs{
			"c:v":     t.videoCodec,
			"pix_fmt": t.pixelFormat,
		}).
		OverWriteOutput()
}

// Args аргументы командной строки ffmpeg для пары файлов
func (t *Transcoder) Args(input, output string) []string {
	return t.stream(input, output).GetArgs()
}

// DiagnosticTail возвращает не более limit последних символов s
func DiagnosticTail(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[len(runes)-limit:])
}
