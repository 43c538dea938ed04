package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"taskboard/internal/cli"
	"taskboard/internal/config"
	"taskboard/internal/models/task"
	"taskboard/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Now() time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (m *MockTaskService) Board(ctx context.Context, filter task.Filter, fresh bool) (*service.Board, error) {
	args := m.Called(ctx, filter, fresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Board), args.Error(1)
}

func (m *MockTaskService) BeginEdit(ctx context.Context, id task.ID) (service.FormMode, service.Draft, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.FormMode), args.Get(1).(service.Draft), args.Error(2)
}

func (m *MockTaskService) Submit(ctx context.Context, mode service.FormMode, draft service.Draft) (*task.Task, error) {
	args := m.Called(ctx, mode, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id task.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type harness struct {
	svc       *MockTaskService
	cfg       *config.Config
	logToFile bool
	served    bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	return &harness{svc: new(MockTaskService)}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	factory := func(ctx context.Context, cfg *config.Config, logToFile bool) (*cli.Runtime, error) {
		h.cfg = cfg
		h.logToFile = logToFile
		return &cli.Runtime{
			Service: h.svc,
			Serve: func(context.Context) error {
				h.served = true
				return nil
			},
		}, nil
	}

	var out bytes.Buffer
	root := cli.NewRootCommand(factory, "test")
	root.SetOutput(&out)
	err := root.Execute(context.Background(), args)
	return out.String(), err
}

func board() *service.Board {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := []*task.Task{
		{ID: "2", Title: "Plan", Status: task.StageTestPlanning, DueDate: "2026-03-05", Priority: task.PriorityLow},
		{ID: "9", Title: "Someday", Status: task.StageTaskAdded, DueDate: "later"},
	}
	b := &service.Board{Filter: task.FilterAll, Now: now, Total: 2}
	for _, t := range tasks {
		b.Tasks = append(b.Tasks, service.NewTaskView(t, now))
	}
	return b
}

// TestList_Table тестирует табличный вывод
func TestList_Table(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Board", mock.Anything, task.FilterAll, false).Return(board(), nil).Once()

	out, err := h.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PRIORITY")
	assert.Contains(t, out, "Plan")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "###....")
	assert.Contains(t, out, "Low*")
	assert.True(t, h.logToFile)
	h.svc.AssertExpectations(t)
}

// TestList_Formats тестирует json и yaml
func TestList_Formats(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Board", mock.Anything, task.FilterHigh, true).Return(board(), nil)

	out, err := h.run(t, "list", "--filter", "high", "--fresh", "-o", "json")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "High", rows[0]["priority"])
	assert.Equal(t, "Low", rows[0]["storedPriority"])

	out, err = h.run(t, "list", "--filter", "high", "--fresh", "-o", "yaml")
	require.NoError(t, err)
	var yamlRows []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &yamlRows))
	require.Len(t, yamlRows, 2)
	assert.Equal(t, "2026-03-05", yamlRows[0]["due_date"])
	assert.Equal(t, false, yamlRows[1]["valid_due"])
}

// TestList_BadFlags неверный фильтр и формат
func TestList_BadFlags(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "list", "--filter", "urgent")
	assert.Error(t, err)

	_, err = h.run(t, "list", "-o", "xml")
	assert.Error(t, err)
	h.svc.AssertNotCalled(t, "Board", mock.Anything, mock.Anything, mock.Anything)
}

// TestAdd тестирует создание
func TestAdd(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Submit", mock.Anything, service.Creating(), service.Draft{Title: "Plan tests", DueDate: "2026-03-10"}).
		Return(&task.Task{ID: "12", Priority: task.PriorityHigh}, nil).Once()

	out, err := h.run(t, "add", "--title", "Plan tests", "--due", "2026-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Created task 12 (High priority)")

	_, err = h.run(t, "add", "--due", "2026-03-10")
	assert.Error(t, err)
	h.svc.AssertExpectations(t)
}

// TestEdit незаданные флаги сохраняют значения задачи
func TestEdit(t *testing.T) {
	h := newHarness(t)
	current := service.Draft{Title: "Plan", Description: "keep", Status: task.StageTestPlanning, DueDate: "2026-03-20"}
	h.svc.On("BeginEdit", mock.Anything, task.ID("2")).Return(service.Editing("2"), current, nil).Once()
	h.svc.On("Submit", mock.Anything, service.Editing("2"), service.Draft{
		Title: "Plan", Description: "keep", Status: task.StageTestExecution, DueDate: "2026-03-20",
	}).Return(&task.Task{ID: "2", Priority: task.PriorityMedium}, nil).Once()

	out, err := h.run(t, "edit", "2", "--status", "Test Execution")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated task 2 (Medium priority)")
	h.svc.AssertExpectations(t)
}

// TestDelete тестирует удаление
func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Delete", mock.Anything, task.ID("4")).Return(nil).Once()
	h.svc.On("Delete", mock.Anything, task.ID("5")).Return(service.NewNotFound("5")).Once()

	out, err := h.run(t, "delete", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted task 4")

	_, err = h.run(t, "delete", "5")
	assert.True(t, service.IsCode(err, service.CodeNotFound))
}

// TestStagesAndClassify не требуют хранилища
func TestStagesAndClassify(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "stages", "Test", "Planning")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] Requirement Analysis")
	assert.Contains(t, out, "[x] Test Planning")
	assert.Contains(t, out, "[ ] Completed")

	out, err = h.run(t, "classify", "not-a-date")
	require.NoError(t, err)
	assert.Contains(t, out, "Low (invalid date)")

	out, err = h.run(t, "classify", time.Now().AddDate(0, 0, 3).Format("2006-01-02"))
	require.NoError(t, err)
	assert.Equal(t, "High\n", out)
	assert.Nil(t, h.cfg, "фабрика не вызывалась")
}

// TestServe флаги переопределяют конфиг, логи идут в stderr
func TestServe(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "serve", "--store-url", "http://store:3000", "--cache-type", "inmemory", "--dev")
	require.NoError(t, err)
	assert.True(t, h.served)
	assert.False(t, h.logToFile)
	require.NotNil(t, h.cfg)
	assert.Equal(t, "http://store:3000", h.cfg.Store.URL)
	assert.Equal(t, config.CacheInMemory, h.cfg.Cache.Type)
	assert.True(t, h.cfg.Logging.Development)

	_, err = h.run(t, "serve", "--cache-type", "redis")
	assert.Error(t, err)
}

// TestFlagsOverrideInvalidConfig флаг исправляет невалидное значение из окружения
func TestFlagsOverrideInvalidConfig(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TASKBOARD_CACHE_TYPE", "postgres")
	h.svc.On("Delete", mock.Anything, task.ID("1")).Return(nil).Once()

	_, err := h.run(t, "--cache-type", "inmemory", "delete", "1")
	require.NoError(t, err)
	require.NotNil(t, h.cfg)
	assert.Equal(t, config.CacheInMemory, h.cfg.Cache.Type)
	h.svc.AssertExpectations(t)

	h.cfg = nil
	_, err = h.run(t, "delete", "1")
	assert.ErrorContains(t, err, "cache.url")
	assert.Nil(t, h.cfg)
}
