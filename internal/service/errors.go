package service

import (
	"errors"
	"net/http"
)

// ErrorKind закрытый перечень видов ошибок конвейера
type ErrorKind int

const (
	// KindInternal любая необработанная ошибка
	KindInternal ErrorKind = iota
	// KindValidation файл отсутствует, пустое имя или запрещенное расширение
	KindValidation
	// KindTooLarge файл больше допустимого размера
	KindTooLarge
	// KindTranscode ffmpeg завершился с ошибкой
	KindTranscode
	// KindModelOutputMissing модель не сохранила видео
	KindModelOutputMissing
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTooLarge:
		return "too_large"
	case KindTranscode:
		return "transcode"
	case KindModelOutputMissing:
		return "model_output_missing"
	default:
		return "internal"
	}
}

// HTTPStatus код ответа для вида ошибки
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// UserCorrectable ошибку может исправить сам пользователь
func (k ErrorKind) UserCorrectable() bool {
	return k == KindValidation || k == KindTooLarge
}

// PipelineError ошибка обработки загрузки
type PipelineError struct {
	Kind    ErrorKind
	Message string // Сообщение для клиента
	Details string // Диагностика, например хвост вывода ffmpeg
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewValidationError ошибка валидации загрузки (400)
func NewValidationError(message string) *PipelineError {
	return &PipelineError{Kind: KindValidation, Message: message}
}

// NewTooLargeError файл превышает лимит (413)
func NewTooLargeError(err error) *PipelineError {
	return &PipelineError{Kind: KindTooLarge, Message: "File too large", Err: err}
}

// KindOf возвращает вид ошибки; всё, что не PipelineError, считается KindInternal
func KindOf(err error) ErrorKind {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindInternal
}
