// internal/core/services/export_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/core/services"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
	"github.com/ammerola/keuringen-be/test/helpers"
	"github.com/ammerola/keuringen-be/test/mocks"
)

type exportServiceFixture struct {
	svc     *services.ExportService
	queue   *mocks.MockTaskQueue
	cache   *mocks.MockCacheRepository
	storage *mocks.MockFileStorage
}

func newExportService(t *testing.T) *exportServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &exportServiceFixture{
		queue:   mocks.NewMockTaskQueue(ctrl),
		cache:   mocks.NewMockCacheRepository(ctrl),
		storage: mocks.NewMockFileStorage(ctrl),
	}
	f.svc = services.NewExportService(f.queue, f.cache, f.storage, 15*time.Minute, time.Hour, helpers.TestLogger())
	return f
}

func TestExportStatusKey(t *testing.T) {
	assert.Equal(t, "export:abc", services.ExportStatusKey("abc"))
}

func TestExportService_RequestExport(t *testing.T) {
	t.Run("enqueues and stores pending status", func(t *testing.T) {
		f := newExportService(t)
		userID := uuid.New()

		var enqueued *asynq.Task
		f.queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
				enqueued = task
				return &asynq.TaskInfo{ID: "ignored", Queue: tasks.QueueDefault}, nil
			})

		var stored *domain.ExportJob
		f.cache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), time.Hour).
			DoAndReturn(func(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
				stored = value.(*domain.ExportJob)
				assert.Equal(t, services.ExportStatusKey(stored.ID), key)
				return true, nil
			})

		job, err := f.svc.RequestExport(context.Background(), "Kerk", userID)
		require.NoError(t, err)

		assert.Equal(t, domain.ExportPending, job.Status)
		assert.Equal(t, "Kerk", job.Query)
		assert.Equal(t, userID, job.RequestedBy)
		assert.Same(t, job, stored)

		require.NotNil(t, enqueued)
		assert.Equal(t, tasks.TypeExportInspections, enqueued.Type())
		assert.Contains(t, string(enqueued.Payload()), `"query":"Kerk"`)
	})

	t.Run("enqueue failure", func(t *testing.T) {
		f := newExportService(t)
		f.queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))

		_, err := f.svc.RequestExport(context.Background(), "", uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue export")
	})

	t.Run("status write failure still returns the job", func(t *testing.T) {
		f := newExportService(t)
		f.queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(&asynq.TaskInfo{Queue: tasks.QueueDefault}, nil)
		f.cache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("timeout"))

		job, err := f.svc.RequestExport(context.Background(), "", uuid.New())
		require.NoError(t, err)
		assert.NotEmpty(t, job.ID)
	})
}

func TestExportService_Status(t *testing.T) {
	stub := func(job domain.ExportJob) func(context.Context, string, any) error {
		return func(_ context.Context, _ string, dest any) error {
			*(dest.(*domain.ExportJob)) = job
			return nil
		}
	}

	t.Run("completed job gets a download url", func(t *testing.T) {
		f := newExportService(t)
		f.cache.EXPECT().Get(gomock.Any(), "export:job-1", gomock.Any()).
			DoAndReturn(stub(domain.ExportJob{ID: "job-1", Status: domain.ExportCompleted, Key: "exports/k.xlsx", Rows: 4}))
		f.storage.EXPECT().GetPresignedURL(gomock.Any(), "exports/k.xlsx", 15*time.Minute).
			Return("https://bucket/exports/k.xlsx?sig", nil)

		job, err := f.svc.Status(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, "https://bucket/exports/k.xlsx?sig", job.DownloadURL)
		assert.Equal(t, 4, job.Rows)
	})

	t.Run("running job is returned as is", func(t *testing.T) {
		f := newExportService(t)
		f.cache.EXPECT().Get(gomock.Any(), "export:job-2", gomock.Any()).
			DoAndReturn(stub(domain.ExportJob{ID: "job-2", Status: domain.ExportProcessing}))

		job, err := f.svc.Status(context.Background(), "job-2")
		require.NoError(t, err)
		assert.Equal(t, domain.ExportProcessing, job.Status)
		assert.Empty(t, job.DownloadURL)
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newExportService(t)
		f.cache.EXPECT().Get(gomock.Any(), "export:gone", gomock.Any()).Return(ports.ErrCacheMiss)

		_, err := f.svc.Status(context.Background(), "gone")
		assert.ErrorIs(t, err, domain.ErrExportNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		f := newExportService(t)
		_, err := f.svc.Status(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("signing failure", func(t *testing.T) {
		f := newExportService(t)
		f.cache.EXPECT().Get(gomock.Any(), "export:job-3", gomock.Any()).
			DoAndReturn(stub(domain.ExportJob{ID: "job-3", Status: domain.ExportCompleted, Key: "k"}))
		f.storage.EXPECT().GetPresignedURL(gomock.Any(), "k", gomock.Any()).Return("", errors.New("no creds"))

		_, err := f.svc.Status(context.Background(), "job-3")
		assert.ErrorContains(t, err, "failed to sign download url")
	})
}
