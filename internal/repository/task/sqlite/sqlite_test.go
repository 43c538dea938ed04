package sqlite_test

import (
	"context"
	"path/filepath"
	"taskboard/internal/models/task"
	"taskboard/internal/repository"
	"taskboard/internal/repository/task/sqlite"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) (*sqlite.Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	storage, err := sqlite.New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(storage.Close)
	return storage, path
}

// TestStorage_LoadEmpty новый кэш пуст
func TestStorage_LoadEmpty(t *testing.T) {
	storage, _ := newStorage(t)

	require.NoError(t, storage.HealthCheck(context.Background()))
	_, _, err := storage.Load(context.Background())
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

// TestStorage_SaveLoad снимок сохраняется и перезаписывается
func TestStorage_SaveLoad(t *testing.T) {
	ctx := context.Background()
	storage, _ := newStorage(t)

	first := []*task.Task{{ID: "1", Title: "Analyse", Status: task.StageRequirementAnalysis, DueDate: "2026-04-10", Priority: task.PriorityHigh}}
	require.NoError(t, storage.Save(ctx, first))

	second := []*task.Task{
		{ID: "2", Title: "Setup", Status: task.StageTestEnvironmentSetup, DueDate: "2026-05-10", Priority: task.PriorityMedium},
		{ID: "3", Title: "Ship", Status: task.StageCompleted, DueDate: "not a date", Priority: task.PriorityLow},
	}
	require.NoError(t, storage.Save(ctx, second))

	loaded, savedAt, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.False(t, savedAt.IsZero())
	assert.Equal(t, second, loaded)
}

// TestStorage_Persistent снимок переживает переоткрытие файла
func TestStorage_Persistent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	storage, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, storage.Save(ctx, []*task.Task{{ID: "9", Title: "Keep me"}}))
	storage.Close()

	reopened, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, _, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Keep me", loaded[0].Title)
}

// TestStorage_Clear тестирует очистку
func TestStorage_Clear(t *testing.T) {
	ctx := context.Background()
	storage, _ := newStorage(t)

	require.NoError(t, storage.Save(ctx, []*task.Task{{ID: "1"}}))
	require.NoError(t, storage.Clear(ctx))

	_, _, err := storage.Load(ctx)
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}
