package service

import (
	"context"
	"errors"
	"fmt"
	"taskboard/internal/classifier"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/repository"
	"time"

	"go.uber.org/zap"
)

type Source string

const (
	SourceCache Source = "cache"
	SourceStore Source = "store"
)

type TaskView struct {
	Task     *task.Task             `json:"task"`
	Bucket   task.Priority          `json:"bucket,omitempty"`
	ValidDue bool                   `json:"validDue"`
	Diverged bool                   `json:"diverged"`
	Stages   []classifier.StageView `json:"stages"`
}

type Board struct {
	Filter   task.Filter `json:"filter"`
	Now      time.Time   `json:"now"`
	Source   Source      `json:"source"`
	SyncedAt time.Time   `json:"syncedAt"`
	Stale    bool        `json:"stale"`
	Total    int         `json:"total"`
	Tasks    []TaskView  `json:"tasks"`
}

type TaskService struct {
	store TaskStore
	cache TaskCache
	now   func() time.Time
}

type ServiceOption func(*TaskService)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(store TaskStore, cache TaskCache, options ...ServiceOption) *TaskService {
	s := &TaskService{
		store: store,
		cache: cache,
		now:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TaskService) Now() time.Time {
	return s.now()
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.cache.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// Load отдаёт снимок из кэша для мгновенной отрисовки, при его отсутствии идёт в хранилище
func (s *TaskService) Load(ctx context.Context) ([]*task.Task, Source, time.Time, error) {
	tasks, savedAt, err := s.cache.Load(ctx)
	if err == nil {
		logger.Debug("Service: Задачи из кэша", zap.Int("count", len(tasks)))
		return tasks, SourceCache, savedAt, nil
	}

	switch {
	case errors.Is(err, repository.ErrCacheMiss):
	case errors.Is(err, repository.ErrCorruptSnapshot):
		logger.Warn("Service: Снимок кэша повреждён, очистка", zap.Error(err))
		if clearErr := s.cache.Clear(ctx); clearErr != nil {
			logger.Error("Service: Не удалось очистить кэш", clearErr)
		}
	default:
		logger.Warn("Service: Кэш недоступен, запрос в хранилище", zap.Error(err))
	}

	tasks, err = s.Refresh(ctx)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return tasks, SourceStore, s.now(), nil
}

// Refresh получает свежий список и перезаписывает кэш. Ошибка записи в кэш не фатальна.
func (s *TaskService) Refresh(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	tasks, err := s.store.List(ctx)
	if err != nil {
		logger.Error("Service: Не удалось получить задачи", err)
		return nil, NewStoreUnavailable("list", err)
	}

	if err := s.cache.Save(ctx, tasks); err != nil {
		logger.Warn("Service: Не удалось обновить кэш", zap.Error(err))
	}

	logger.Info("Service: Список задач обновлён",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))
	return tasks, nil
}

// Board строит отфильтрованный и отсортированный вид. Один now на весь проход.
// При fresh и недоступном хранилище отдаётся кэш с пометкой Stale.
func (s *TaskService) Board(ctx context.Context, filter task.Filter, fresh bool) (*Board, error) {
	now := s.now()

	var (
		tasks    []*task.Task
		source   Source
		syncedAt time.Time
		stale    bool
		err      error
	)

	if fresh {
		tasks, err = s.Refresh(ctx)
		source, syncedAt = SourceStore, now
		if err != nil {
			cached, savedAt, cacheErr := s.cache.Load(ctx)
			if cacheErr != nil {
				return nil, err
			}
			logger.Warn("Service: Хранилище недоступно, показываем кэш", zap.Error(err))
			tasks, source, syncedAt, stale = cached, SourceCache, savedAt, true
		}
	} else {
		tasks, source, syncedAt, err = s.Load(ctx)
		if err != nil {
			return nil, err
		}
	}

	ordered := classifier.FilterAndSort(tasks, filter, now)
	views := make([]TaskView, len(ordered))
	for i, t := range ordered {
		views[i] = NewTaskView(t, now)
	}

	return &Board{
		Filter:   filter,
		Now:      now,
		Source:   source,
		SyncedAt: syncedAt,
		Stale:    stale,
		Total:    len(tasks),
		Tasks:    views,
	}, nil
}

func NewTaskView(t *task.Task, now time.Time) TaskView {
	bucket, ok := classifier.Bucket(t, now)
	return TaskView{
		Task:     t,
		Bucket:   bucket,
		ValidDue: ok,
		Diverged: classifier.Diverged(t, now),
		Stages:   classifier.RenderStages(t.Status),
	}
}

// BeginEdit загружает задачу из хранилища и переводит форму в режим редактирования
func (s *TaskService) BeginEdit(ctx context.Context, id task.ID) (FormMode, Draft, error) {
	if id == "" {
		return Creating(), Draft{}, NewValidationError("id", "пустой идентификатор")
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		logger.Info("Service: Задача для редактирования не получена", zap.String("task_id", id.String()), zap.Error(err))
		return Creating(), Draft{}, fromStoreError("get", id, err)
	}
	return Editing(id), DraftFrom(t), nil
}

// Submit вычисляет приоритет на момент отправки и направляет задачу в create или update по режиму формы
func (s *TaskService) Submit(ctx context.Context, mode FormMode, draft Draft) (*task.Task, error) {
	if mode.IsEditing() && mode.TaskID() == "" {
		return nil, NewValidationError("id", "пустой идентификатор в режиме редактирования")
	}

	now := s.now()
	toSubmit := task.New(
		task.WithTitle(draft.Title),
		task.WithDescription(draft.Description),
		task.WithStatus(draft.Status),
		task.WithDueDate(draft.DueDate),
		task.WithPriority(classifier.ClassifyDate(draft.DueDate, now)),
	)

	var (
		saved     *task.Task
		err       error
		operation string
	)
	if mode.IsEditing() {
		operation = "update"
		saved, err = s.store.Update(ctx, mode.TaskID(), toSubmit)
	} else {
		operation = "create"
		saved, err = s.store.Create(ctx, toSubmit)
	}
	if err != nil {
		logger.Error("Service: Не удалось сохранить задачу", err, zap.String("operation", operation))
		return nil, fromStoreError(operation, mode.TaskID(), err)
	}

	logger.Info("Service: Задача сохранена",
		zap.String("operation", operation),
		zap.String("task_id", saved.ID.String()),
		zap.String("priority", string(saved.Priority)))

	if _, err := s.Refresh(ctx); err != nil {
		logger.Warn("Service: Не удалось обновить список после сохранения", zap.Error(err))
	}
	return saved, nil
}

func (s *TaskService) Delete(ctx context.Context, id task.ID) error {
	if id == "" {
		return NewValidationError("id", "пустой идентификатор")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		logger.Error("Service: Не удалось удалить задачу", err, zap.String("task_id", id.String()))
		return fromStoreError("delete", id, err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))

	if _, err := s.Refresh(ctx); err != nil {
		logger.Warn("Service: Не удалось обновить список после удаления", zap.Error(err))
	}
	return nil
}
