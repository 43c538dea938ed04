package mcp

import (
	"context"
	"encoding/json"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func call(t *testing.T, svc TaskService, name string, arguments map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := NewServer(svc, "test")

	tool := s.GetTool(name)
	require.NotNil(t, tool, "инструмент %s не найден", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

// TestListTasks тестирует фильтр и свежесть
func TestListTasks(t *testing.T) {
	svc := new(MockTaskService)
	svc.On("Board", mock.Anything, task.FilterHigh, true).Return(&service.Board{
		Filter: task.FilterHigh,
		Total:  3,
		Tasks:  []service.TaskView{{Task: &task.Task{ID: "1", Title: "Urgent"}, Bucket: task.PriorityHigh, ValidDue: true}},
	}, nil).Once()

	result := call(t, svc, "list_tasks", map[string]any{"filter": "high", "fresh": true})
	require.False(t, result.IsError)

	var board service.Board
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &board))
	assert.Equal(t, task.FilterHigh, board.Filter)
	require.Len(t, board.Tasks, 1)
	assert.Equal(t, "Urgent", board.Tasks[0].Task.Title)

	result = call(t, svc, "list_tasks", map[string]any{"filter": "urgent"})
	assert.True(t, result.IsError)
	svc.AssertExpectations(t)
}

// TestClassifyDueDate тестирует классификацию
func TestClassifyDueDate(t *testing.T) {
	tests := []struct {
		dueDate string
		want    task.Priority
		valid   bool
	}{
		{dueDate: "2026-03-15", want: task.PriorityHigh, valid: true},
		{dueDate: "2026-03-16", want: task.PriorityMedium, valid: true},
		{dueDate: "2026-04-01", want: task.PriorityLow, valid: true},
		{dueDate: "", want: task.PriorityLow, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.dueDate, func(t *testing.T) {
			result := call(t, new(MockTaskService), "classify_due_date", map[string]any{"due_date": tt.dueDate})
			var got struct {
				Priority task.Priority `json:"priority"`
				Valid    bool          `json:"valid"`
			}
			require.NoError(t, json.Unmarshal([]byte(text(t, result)), &got))
			assert.Equal(t, tt.want, got.Priority)
			assert.Equal(t, tt.valid, got.Valid)
		})
	}
}

// TestRenderStages тестирует проекцию статуса
func TestRenderStages(t *testing.T) {
	result := call(t, new(MockTaskService), "render_stages", map[string]any{"status": "Completed"})
	var got struct {
		Known  bool `json:"known"`
		Stages []struct {
			Filled bool `json:"filled"`
		} `json:"stages"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &got))
	assert.True(t, got.Known)
	require.Len(t, got.Stages, 7)
	for _, s := range got.Stages {
		assert.True(t, s.Filled)
	}
}

// TestCreateTask тестирует создание
func TestCreateTask(t *testing.T) {
	svc := new(MockTaskService)
	draft := service.Draft{Title: "Plan", Status: task.StageTestPlanning, DueDate: "2026-03-20"}
	svc.On("Submit", mock.Anything, service.Creating(), draft).
		Return(&task.Task{ID: "8", Title: "Plan", Priority: task.PriorityMedium}, nil).Once()

	result := call(t, svc, "create_task", map[string]any{"title": "Plan", "status": "Test Planning", "due_date": "2026-03-20"})
	require.False(t, result.IsError)
	assert.Contains(t, text(t, result), `"priority":"Medium"`)
	svc.AssertExpectations(t)
}

// TestUpdateTask незаданные поля сохраняют текущие значения
func TestUpdateTask(t *testing.T) {
	svc := new(MockTaskService)
	current := service.Draft{Title: "Plan", Description: "keep", Status: task.StageTestPlanning, DueDate: "2026-03-20"}
	svc.On("BeginEdit", mock.Anything, task.ID("8")).Return(service.Editing("8"), current, nil).Once()
	svc.On("Submit", mock.Anything, service.Editing("8"), service.Draft{
		Title: "Plan", Description: "keep", Status: task.StageCompleted, DueDate: "2026-03-02",
	}).Return(&task.Task{ID: "8", Title: "Plan"}, nil).Once()
	svc.On("BeginEdit", mock.Anything, task.ID("404")).
		Return(service.Creating(), service.Draft{}, service.NewNotFound("404")).Once()

	result := call(t, svc, "update_task", map[string]any{"id": "8", "status": "Completed", "due_date": "2026-03-02"})
	require.False(t, result.IsError)

	result = call(t, svc, "update_task", map[string]any{"id": "404", "title": "x"})
	assert.True(t, result.IsError)
	svc.AssertExpectations(t)
}

// TestDeleteTask тестирует удаление
func TestDeleteTask(t *testing.T) {
	svc := new(MockTaskService)
	svc.On("Delete", mock.Anything, task.ID("8")).Return(nil).Once()

	result := call(t, svc, "delete_task", map[string]any{"id": "8"})
	require.False(t, result.IsError)
	assert.Contains(t, text(t, result), "8")
	svc.AssertExpectations(t)
}
