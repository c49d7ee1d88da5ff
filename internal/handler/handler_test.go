package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"helmet-detector-go/internal/repository"
	"helmet-detector-go/internal/service"
	"helmet-detector-go/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeProcessor struct {
	result   models.UploadResult
	err      error
	filename string
	content  string
	ctxErr   error
}

func (f *fakeProcessor) Process(ctx context.Context, request models.UploadRequest) (models.UploadResult, error) {
	f.filename = request.Filename
	if request.Content != nil {
		data, _ := io.ReadAll(request.Content)
		f.content = string(data)
	}
	f.ctxErr = ctx.Err()
	return f.result, f.err
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newUploadRouter(processor Processor, maxSize int64) *gin.Engine {
	router := gin.New()
	NewUploadHandler(processor, maxSize, newTestLogger()).RegisterRoutes(router)
	return router
}

func doUpload(router *gin.Engine, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestUpload_Image(t *testing.T) {
	processor := &fakeProcessor{result: &models.ImageResponse{
		Success:      true,
		FileType:     models.MediaImage,
		OriginalFile: "/static/uploads/ab12cd34_worker.jpg",
		ResultFile:   "/static/results/result_ab12cd34_worker.jpg",
		Detections: []models.DetectionRecord{
			{Class: "Helmet", Confidence: 95.5, BBox: []float64{10, 20, 110, 140}, ClassID: 0},
		},
		Stats: models.DetectionStats{Helmet: 1, Total: 1},
	}}
	router := newUploadRouter(processor, 1<<20)

	body, contentType := multipartBody(t, "file", "worker.jpg", "jpeg-bytes")
	w := doUpload(router, body, contentType)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "worker.jpg", processor.filename)
	require.Equal(t, "jpeg-bytes", processor.content)
	require.NoError(t, processor.ctxErr)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	require.Equal(t, "image", resp["file_type"])
	require.Equal(t, map[string]interface{}{"helmet": 1.0, "no_helmet": 0.0, "total": 1.0}, resp["stats"])

	detections := resp["detections"].([]interface{})
	require.Len(t, detections, 1)
	first := detections[0].(map[string]interface{})
	require.Equal(t, "Helmet", first["class"])
	require.Equal(t, 95.5, first["confidence"])
	require.Equal(t, []interface{}{10.0, 20.0, 110.0, 140.0}, first["bbox"])
}

func TestUpload_MissingFilePart(t *testing.T) {
	processor := &fakeProcessor{}
	router := newUploadRouter(processor, 1<<20)

	body, contentType := multipartBody(t, "video", "clip.mp4", "x")
	w := doUpload(router, body, contentType)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No file part", decodeError(t, w).Error)
	require.Empty(t, processor.filename)
}

func TestUpload_NotMultipart(t *testing.T) {
	router := newUploadRouter(&fakeProcessor{}, 1<<20)

	w := doUpload(router, strings.NewReader(`{"file":"x"}`), "application/json")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No file part", decodeError(t, w).Error)
}

func TestUpload_EmptyFilename(t *testing.T) {
	router := newUploadRouter(&fakeProcessor{}, 1<<20)

	body, contentType := multipartBody(t, "file", "", "")
	w := doUpload(router, body, contentType)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No selected file", decodeError(t, w).Error)
}

func TestUpload_TooLarge(t *testing.T) {
	processor := &fakeProcessor{}
	router := newUploadRouter(processor, 1024)

	body, contentType := multipartBody(t, "file", "big.png", strings.Repeat("x", 64<<10))
	w := doUpload(router, body, contentType)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Equal(t, "File too large", decodeError(t, w).Error)
	require.Empty(t, processor.filename)
}

func TestUpload_PipelineErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		details string
	}{
		{
			name:    "validation",
			err:     service.NewValidationError("File type not allowed"),
			status:  http.StatusBadRequest,
			message: "File type not allowed",
		},
		{
			name: "transcode",
			err: &service.PipelineError{
				Kind:    service.KindTranscode,
				Message: "FFmpeg conversion failed",
				Details: "Unknown encoder 'libx264'",
				Err:     errors.New("exit status 1"),
			},
			status:  http.StatusInternalServerError,
			message: "FFmpeg conversion failed",
			details: "Unknown encoder 'libx264'",
		},
		{
			name: "model output missing",
			err: &service.PipelineError{
				Kind:    service.KindModelOutputMissing,
				Message: "Detection model did not produce an output video file",
			},
			status:  http.StatusInternalServerError,
			message: "Detection model did not produce an output video file",
		},
		{
			name:    "internal",
			err:     &service.PipelineError{Kind: service.KindInternal, Message: "Detection failed", Err: errors.New("connection refused")},
			status:  http.StatusInternalServerError,
			message: "Detection failed",
			details: "connection refused",
		},
		{
			name:    "untyped",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "Internal server error",
			details: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUploadRouter(&fakeProcessor{err: tt.err}, 1<<20)
			body, contentType := multipartBody(t, "file", "clip.mp4", "x")
			w := doUpload(router, body, contentType)

			require.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			require.Equal(t, tt.message, resp.Error)
			require.Equal(t, tt.details, resp.Details)
		})
	}
}

func TestIndex(t *testing.T) {
	router := newUploadRouter(&fakeProcessor{}, 100<<20)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Helmet Detection")
	require.Contains(t, w.Body.String(), `name="file"`)
}

type fakeModelHealth struct {
	resp *models.HealthResponse
	err  error
}

func (f *fakeModelHealth) CheckHealth(context.Context) (*models.HealthResponse, error) {
	return f.resp, f.err
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		model    *fakeModelHealth
		database func() error
		status   int
		health   string
	}{
		{
			name:   "model up, history disabled",
			model:  &fakeModelHealth{resp: &models.HealthResponse{Status: "healthy", ModelLoaded: true}},
			status: http.StatusOK,
			health: "healthy",
		},
		{
			name:   "model down",
			model:  &fakeModelHealth{err: errors.New("connection refused")},
			status: http.StatusServiceUnavailable,
			health: "unhealthy",
		},
		{
			name:     "database down",
			model:    &fakeModelHealth{resp: &models.HealthResponse{Status: "healthy"}},
			database: func() error { return errors.New("no connection") },
			status:   http.StatusServiceUnavailable,
			health:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			NewHealthHandler(tt.model, tt.database, newTestLogger()).RegisterRoutes(router)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

			require.Equal(t, tt.status, w.Code)
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tt.health, resp["status"])
		})
	}
}

type fakeHistory struct {
	uploads map[string]*service.UploadSummary
	lastPg  [2]int
}

func (f *fakeHistory) ListUploads(page, pageSize int) (*service.ListUploadsResponse, error) {
	f.lastPg = [2]int{page, pageSize}
	resp := &service.ListUploadsResponse{Uploads: []service.UploadSummary{}, Total: int64(len(f.uploads)), Page: page, Size: pageSize}
	for _, u := range f.uploads {
		resp.Uploads = append(resp.Uploads, *u)
	}
	return resp, nil
}

func (f *fakeHistory) GetUpload(id string) (*service.UploadSummary, error) {
	if u, ok := f.uploads[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("failed to get upload: %w", repository.ErrNotFound)
}

func (f *fakeHistory) DeleteUpload(id string) error {
	if _, ok := f.uploads[id]; !ok {
		return fmt.Errorf("failed to get upload for deletion: %w", repository.ErrNotFound)
	}
	delete(f.uploads, id)
	return nil
}

func TestHistoryHandler(t *testing.T) {
	history := &fakeHistory{uploads: map[string]*service.UploadSummary{
		"ab12cd34": {ID: "ab12cd34", FileType: models.MediaImage},
	}}
	router := gin.New()
	NewHistoryHandler(history, newTestLogger()).RegisterRoutes(router)

	serve := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := serve(http.MethodGet, "/api/v1/uploads?page=0&size=1000")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, [2]int{1, 10}, history.lastPg)

	w = serve(http.MethodGet, "/api/v1/uploads/ab12cd34")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":"ab12cd34"`)

	w = serve(http.MethodGet, "/api/v1/uploads/missing")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = serve(http.MethodDelete, "/api/v1/uploads/ab12cd34")
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, history.uploads)

	w = serve(http.MethodDelete, "/api/v1/uploads/ab12cd34")
	require.Equal(t, http.StatusNotFound, w.Code)
}
