package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"taskboard/internal/classifier"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

type TaskService interface {
	Now() time.Time
	Board(context.Context, task.Filter, bool) (*service.Board, error)
	BeginEdit(context.Context, task.ID) (service.FormMode, service.Draft, error)
	Submit(context.Context, service.FormMode, service.Draft) (*task.Task, error)
	Delete(context.Context, task.ID) error
}

// NewServer регистрирует инструменты доски задач
func NewServer(svc TaskService, version string) *server.MCPServer {
	s := server.NewMCPServer("taskboard", version)

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks ordered by due date, optionally filtered by the priority bucket derived from the due date."),
		mcp.WithString("filter", mcp.Description("All, High, Medium or Low (defaults to All)")),
		mcp.WithBoolean("fresh", mcp.Description("Fetch from the store instead of the local cache")),
	), listTasksHandler(svc))

	s.AddTool(mcp.NewTool("classify_due_date",
		mcp.WithDescription("Classify a due date: High within 14 days, Medium within 30 days, Low otherwise or when unparseable."),
		mcp.WithString("due_date", mcp.Description("Due date, YYYY-MM-DD"), mcp.Required()),
	), classifyHandler(svc))

	s.AddTool(mcp.NewTool("render_stages",
		mcp.WithDescription("Project a status onto the seven workflow stages."),
		mcp.WithString("status", mcp.Description("Task status"), mcp.Required()),
	), renderStagesHandler())

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task. Priority is derived from the due date at submission."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("status", mcp.Description("Workflow stage (defaults to 'Task Added')")),
		mcp.WithString("due_date", mcp.Description("Due date, YYYY-MM-DD"), mcp.Required()),
	), createTaskHandler(svc))

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update a task. Omitted fields keep their current values; priority is re-derived."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New workflow stage")),
		mcp.WithString("due_date", mcp.Description("New due date, YYYY-MM-DD")),
	), updateTaskHandler(svc))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(svc))

	return s
}

// Serve запускает MCP-сервер на stdio
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func listTasksHandler(svc TaskService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter, err := task.ParseFilter(mcp.ParseString(request, "filter", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fresh := mcp.ParseBoolean(request, "fresh", false)

		board, err := svc.Board(ctx, filter, fresh)
		if err != nil {
			logger.Error("MCP: Ошибка получения доски", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(board)
	}
}

func classifyHandler(svc TaskService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := mcp.ParseString(request, "due_date", "")
		_, valid := classifier.ParseDueDate(raw)
		return jsonResult(map[string]any{
			"dueDate":  raw,
			"priority": classifier.ClassifyDate(raw, svc.Now()),
			"valid":    valid,
		})
	}
}

func renderStagesHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := task.Stage(mcp.ParseString(request, "status", ""))
		return jsonResult(map[string]any{
			"status": status,
			"known":  status.Valid(),
			"stages": classifier.RenderStages(status),
		})
	}
}

func createTaskHandler(svc TaskService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		draft := service.Draft{
			Title:       mcp.ParseString(request, "title", ""),
			Description: mcp.ParseString(request, "description", ""),
			Status:      task.Stage(mcp.ParseString(request, "status", "")),
			DueDate:     mcp.ParseString(request, "due_date", ""),
		}

		created, err := svc.Submit(ctx, service.Creating(), draft)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Info("MCP: Задача создана", zap.String("task_id", created.ID.String()))
		return jsonResult(created)
	}
}

func updateTaskHandler(svc TaskService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := task.ID(mcp.ParseString(request, "id", ""))

		mode, draft, err := svc.BeginEdit(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		args, _ := request.Params.Arguments.(map[string]any)
		if title, ok := args["title"].(string); ok {
			draft.Title = title
		}
		if description, ok := args["description"].(string); ok {
			draft.Description = description
		}
		if status, ok := args["status"].(string); ok {
			draft.Status = task.Stage(status)
		}
		if dueDate, ok := args["due_date"].(string); ok {
			draft.DueDate = dueDate
		}

		updated, err := svc.Submit(ctx, mode, draft)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Info("MCP: Задача обновлена", zap.String("task_id", updated.ID.String()))
		return jsonResult(updated)
	}
}

func deleteTaskHandler(svc TaskService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := task.ID(mcp.ParseString(request, "id", ""))

		if err := svc.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' deleted", id)), nil
	}
}
