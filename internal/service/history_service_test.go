package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"helmet-detector-go/internal/model"
	"helmet-detector-go/internal/repository"
	"helmet-detector-go/internal/storage"
	"helmet-detector-go/pkg/models"
)

type memoryRepository struct {
	uploads map[string]*model.Upload
	order   []string
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{uploads: map[string]*model.Upload{}}
}

func (r *memoryRepository) Create(upload *model.Upload) error {
	r.uploads[upload.ID] = upload
	r.order = append(r.order, upload.ID)
	return nil
}

func (r *memoryRepository) GetByID(id string) (*model.Upload, error) {
	upload, ok := r.uploads[id]
	if !ok {
		return nil, fmt.Errorf("upload %s: %w", id, repository.ErrNotFound)
	}
	return upload, nil
}

func (r *memoryRepository) List(page, pageSize int) ([]*model.Upload, int64, error) {
	var out []*model.Upload
	for i := len(r.order) - 1; i >= 0; i-- {
		if u, ok := r.uploads[r.order[i]]; ok {
			out = append(out, u)
		}
	}
	total := int64(len(out))
	start := (page - 1) * pageSize
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *memoryRepository) Delete(id string) error {
	if _, ok := r.uploads[id]; !ok {
		return fmt.Errorf("upload %s: %w", id, repository.ErrNotFound)
	}
	delete(r.uploads, id)
	return nil
}

func newHistoryFixture(t *testing.T) (*HistoryService, *memoryRepository, *storage.ArtifactWriter) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	static := filepath.Join(t.TempDir(), "static")
	artifacts, err := storage.NewArtifactWriter(static, filepath.Join(static, "uploads"), filepath.Join(static, "results"), logger)
	require.NoError(t, err)

	repo := newMemoryRepository()
	return NewHistoryService(repo, artifacts, logger), repo, artifacts
}

func TestHistoryService_RecordImage(t *testing.T) {
	svc, repo, _ := newHistoryFixture(t)

	err := svc.Record(context.Background(), UploadRecord{
		FileID:           "ab12cd34",
		OriginalFilename: "worker.jpg",
		Size:             1024,
		Result: &models.ImageResponse{
			Success:      true,
			FileType:     models.MediaImage,
			OriginalFile: "/static/uploads/ab12cd34_worker.jpg",
			ResultFile:   "/static/results/result_ab12cd34_worker.jpg",
			Stats:        models.DetectionStats{Helmet: 1, NoHelmet: 1, Total: 2},
		},
		Detections: workerDetections(),
	})
	require.NoError(t, err)

	stored := repo.uploads["ab12cd34"]
	require.NotNil(t, stored)
	require.Equal(t, "image", stored.MediaKind)
	require.Equal(t, 2, stored.TotalCount)
	require.Len(t, stored.Detections, 2)
	require.Equal(t, "NoHelmet", stored.Detections[1].ClassName)
	require.Equal(t, 290.0, stored.Detections[1].X2)

	summary, err := svc.GetUpload("ab12cd34")
	require.NoError(t, err)
	require.Equal(t, models.MediaImage, summary.FileType)
	require.Nil(t, summary.VideoInfo)
	require.Equal(t, workerDetections()[0], summary.Detections[0])
}

func TestHistoryService_RecordVideo(t *testing.T) {
	svc, _, _ := newHistoryFixture(t)

	err := svc.Record(context.Background(), UploadRecord{
		FileID:           "v1",
		OriginalFilename: "site.avi",
		Result: &models.VideoResponse{
			FileType:  models.MediaVideo,
			VideoInfo: models.VideoInfoResponse{FPS: 25, TotalFrames: 250, DurationSeconds: 10, Resolution: "640x480", SampleDetections: 3},
			Stats:     models.DetectionStats{Helmet: 3, Total: 3},
		},
	})
	require.NoError(t, err)

	summary, err := svc.GetUpload("v1")
	require.NoError(t, err)
	require.NotNil(t, summary.VideoInfo)
	require.Equal(t, 25, summary.VideoInfo.FPS)
	require.Equal(t, "640x480", summary.VideoInfo.Resolution)
	require.Equal(t, 3, summary.VideoInfo.SampleDetections)
}

func TestHistoryService_RecordRejectsUnknownResult(t *testing.T) {
	svc, _, _ := newHistoryFixture(t)
	require.Error(t, svc.Record(context.Background(), UploadRecord{FileID: "x"}))
}

func TestHistoryService_ListUploads(t *testing.T) {
	svc, _, _ := newHistoryFixture(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(context.Background(), UploadRecord{
			FileID: fmt.Sprintf("id%d", i),
			Result: &models.ImageResponse{FileType: models.MediaImage},
		}))
	}

	resp, err := svc.ListUploads(1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), resp.Total)
	require.Len(t, resp.Uploads, 2)
	require.Equal(t, "id2", resp.Uploads[0].ID)

	resp, err = svc.ListUploads(5, 2)
	require.NoError(t, err)
	require.NotNil(t, resp.Uploads)
	require.Empty(t, resp.Uploads)
}

func TestHistoryService_DeleteUpload(t *testing.T) {
	svc, repo, artifacts := newHistoryFixture(t)

	raw := artifacts.UploadPath("v2", "site.avi")
	playable := artifacts.PlayableOriginalPath("v2", "site.avi")
	result := artifacts.VideoResultPath("v2", "site.avi")
	for _, path := range []string{raw, playable, result} {
		_, err := artifacts.SaveUpload(path, bytes.NewReader([]byte("x")))
		require.NoError(t, err)
	}

	require.NoError(t, svc.Record(context.Background(), UploadRecord{
		FileID: "v2",
		Result: &models.VideoResponse{
			FileType:     models.MediaVideo,
			OriginalFile: artifacts.PublicURL(playable),
			ResultFile:   artifacts.PublicURL(result),
		},
	}))

	require.NoError(t, svc.DeleteUpload("v2"))
	require.Empty(t, repo.uploads)
	for _, path := range []string{raw, playable, result} {
		_, err := os.Stat(path)
		require.True(t, os.IsNotExist(err), path)
	}

	err := svc.DeleteUpload("v2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
