package handlers

import (
	"context"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"time"
)

type TaskService interface {
	HealthCheck(context.Context) error
	Now() time.Time
	Board(context.Context, task.Filter, bool) (*service.Board, error)
	BeginEdit(context.Context, task.ID) (service.FormMode, service.Draft, error)
	Submit(context.Context, service.FormMode, service.Draft) (*task.Task, error)
	Delete(context.Context, task.ID) error
}
