// internal/workers/cleanup_processor_test.go
package workers_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/workers"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
	"github.com/ammerola/keuringen-be/test/helpers"
	"github.com/ammerola/keuringen-be/test/mocks"
)

func TestCleanupProcessor_CleanupExports(t *testing.T) {
	now := time.Now()
	week := 7 * 24 * time.Hour

	tests := []struct {
		name          string
		objects       []ports.StoredObject
		listErr       error
		deleteErr     error
		wantDeleted   [][]string
		errorContains string
	}{
		{
			name: "deletes only expired files",
			objects: []ports.StoredObject{
				{Key: "exports/old.xlsx", LastModified: now.Add(-8 * 24 * time.Hour)},
				{Key: "exports/new.xlsx", LastModified: now.Add(-time.Hour)},
				{Key: "exports/older.xlsx", LastModified: now.Add(-30 * 24 * time.Hour)},
			},
			wantDeleted: [][]string{{"exports/old.xlsx", "exports/older.xlsx"}},
		},
		{
			name: "nothing expired",
			objects: []ports.StoredObject{
				{Key: "exports/new.xlsx", LastModified: now},
			},
		},
		{
			name:          "list failure",
			listErr:       errors.New("access denied"),
			errorContains: "failed to list exports",
		},
		{
			name: "delete failure",
			objects: []ports.StoredObject{
				{Key: "exports/old.xlsx", LastModified: now.Add(-8 * 24 * time.Hour)},
			},
			deleteErr:     errors.New("throttled"),
			wantDeleted:   [][]string{{"exports/old.xlsx"}},
			errorContains: "failed to delete exports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			fs := mocks.NewMockFileStorage(ctrl)
			p := workers.NewCleanupProcessor(fs, mocks.NewMockInspectionService(ctrl), "exports/", week, helpers.TestLogger())

			fs.EXPECT().List(gomock.Any(), "exports/").Return(tt.objects, tt.listErr)
			for _, keys := range tt.wantDeleted {
				fs.EXPECT().DeleteMultiple(gomock.Any(), keys).Return(tt.deleteErr)
			}

			err := p.CleanupExports(context.Background(), tasks.NewCleanupExportsTask())
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestCleanupProcessor_CleanupExportsBatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	fs := mocks.NewMockFileStorage(ctrl)
	p := workers.NewCleanupProcessor(fs, mocks.NewMockInspectionService(ctrl), "exports/", time.Hour, helpers.TestLogger())

	old := time.Now().Add(-2 * time.Hour)
	objects := make([]ports.StoredObject, 2500)
	for i := range objects {
		objects[i] = ports.StoredObject{Key: fmt.Sprintf("exports/%04d.xlsx", i), LastModified: old}
	}

	var sizes []int
	fs.EXPECT().List(gomock.Any(), "exports/").Return(objects, nil)
	fs.EXPECT().DeleteMultiple(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, keys []string) error {
			sizes = append(sizes, len(keys))
			return nil
		}).
		Times(3)

	require.NoError(t, p.CleanupExports(context.Background(), tasks.NewCleanupExportsTask()))
	assert.Equal(t, []int{1000, 1000, 500}, sizes)
}

func TestCleanupProcessor_RefreshCache(t *testing.T) {
	t.Run("invalidates then warms", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockInspectionService(ctrl)
		p := workers.NewCleanupProcessor(mocks.NewMockFileStorage(ctrl), svc, "exports/", time.Hour, helpers.TestLogger())

		gomock.InOrder(
			svc.EXPECT().Refresh(gomock.Any()).Return(nil),
			svc.EXPECT().Load(gomock.Any()).Return(helpers.CreateTestInspections(4), nil),
		)

		assert.NoError(t, p.RefreshCache(context.Background(), tasks.NewRefreshCacheTask()))
	})

	t.Run("invalidate failure stops before loading", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockInspectionService(ctrl)
		p := workers.NewCleanupProcessor(mocks.NewMockFileStorage(ctrl), svc, "exports/", time.Hour, helpers.TestLogger())

		svc.EXPECT().Refresh(gomock.Any()).Return(errors.New("redis down"))

		err := p.RefreshCache(context.Background(), tasks.NewRefreshCacheTask())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to invalidate cache")
	})

	t.Run("load failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockInspectionService(ctrl)
		p := workers.NewCleanupProcessor(mocks.NewMockFileStorage(ctrl), svc, "exports/", time.Hour, helpers.TestLogger())

		svc.EXPECT().Refresh(gomock.Any()).Return(nil)
		svc.EXPECT().Load(gomock.Any()).Return(nil, errors.New("db down"))

		err := p.RefreshCache(context.Background(), tasks.NewRefreshCacheTask())
		assert.ErrorContains(t, err, "failed to warm cache")
	})
}
