package service

import (
	"context"
	"taskboard/internal/models/task"
	"time"
)

// TaskStore удалённое хранилище задач, единственный источник истины
type TaskStore interface {
	List(context.Context) ([]*task.Task, error)
	Get(context.Context, task.ID) (*task.Task, error)
	Create(context.Context, *task.Task) (*task.Task, error)
	Update(context.Context, task.ID, *task.Task) (*task.Task, error)
	Delete(context.Context, task.ID) error
}

// TaskCache локальная копия последнего полученного списка
type TaskCache interface {
	HealthCheck(context.Context) error
	Save(context.Context, []*task.Task) error
	Load(context.Context) ([]*task.Task, time.Time, error)
	Clear(context.Context) error
	Close()
}
