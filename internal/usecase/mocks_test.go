package usecase

import (
	"context"
	"io"
	"time"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/fiapx/fiapx-frame-sampler/internal/domain/port"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, job *entity.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) Update(ctx context.Context, job *entity.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*entity.Job)
	return job, args.Error(1)
}

type mockStorage struct {
	mock.Mock
	uploaded []byte
}

func (m *mockStorage) DownloadVideo(ctx context.Context, key, dest string) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *mockStorage) UploadArchive(ctx context.Context, key string, r io.Reader, size int64) error {
	data, _ := io.ReadAll(r)
	m.uploaded = data
	return m.Called(ctx, key, size).Error(0)
}

func (m *mockStorage) ArchiveURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) ExtractFrames(ctx context.Context, videoPath string, interval float64, outputDir string, progress port.ProgressFunc) (*entity.ExtractionResult, error) {
	args := m.Called(ctx, videoPath, interval, outputDir)
	if progress != nil {
		progress(1)
	}
	res, _ := args.Get(0).(*entity.ExtractionResult)
	return res, args.Error(1)
}

type mockArchiver struct{ mock.Mock }

func (m *mockArchiver) BuildArchive(ctx context.Context, sourceDir, name string) (string, error) {
	args := m.Called(ctx, sourceDir, name)
	return args.String(0), args.Error(1)
}

type mockStatus struct{ mock.Mock }

func (m *mockStatus) PublishStatus(ctx context.Context, msg entity.FrameStatusMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockDLQ struct{ mock.Mock }

func (m *mockDLQ) PublishToDLQ(ctx context.Context, body []byte, reason string) error {
	return m.Called(ctx, body, reason).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyFailure(ctx context.Context, userEmail, jobID, videoKey, stage, errorMsg string) error {
	return m.Called(ctx, userEmail, jobID, videoKey, stage, errorMsg).Error(0)
}
