package inmemory

import (
	"context"
	"sync"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
	"time"

	"go.uber.org/zap"
)

// TaskStorage держит последний снимок списка задач в памяти процесса
type TaskStorage struct {
	payload []byte
	savedAt time.Time
	mtx     *sync.RWMutex
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		mtx: &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Cache: Соединение стабильно", zap.String("type", "inmemory"))
	return nil
}

// снимок хранится в сериализованном виде, чтобы вызывающий не мог изменить кэш через указатели
func (s *TaskStorage) Save(ctx context.Context, tasks []*task.Task) error {
	payload, err := repo.EncodeSnapshot(tasks)
	if err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.payload = payload
	s.savedAt = time.Now()
	return nil
}

func (s *TaskStorage) Load(ctx context.Context) ([]*task.Task, time.Time, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.payload == nil {
		return nil, time.Time{}, repo.ErrCacheMiss
	}

	tasks, err := repo.DecodeSnapshot(s.payload)
	if err != nil {
		return nil, time.Time{}, err
	}
	return tasks, s.savedAt, nil
}

func (s *TaskStorage) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.payload = nil
	s.savedAt = time.Time{}
	return nil
}

func (s *TaskStorage) Close() {}
