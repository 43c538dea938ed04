package dto

import (
	"strings"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
)

type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
}

func (r TaskRequest) ToDraft() service.Draft {
	return service.Draft{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Status:      task.Stage(strings.TrimSpace(r.Status)),
		DueDate:     strings.TrimSpace(r.DueDate),
	}
}

type ClassifyResponse struct {
	DueDate  string        `json:"dueDate"`
	Priority task.Priority `json:"priority"`
	Valid    bool          `json:"valid"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
