package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS task_snapshots (
	key      TEXT PRIMARY KEY,
	payload  TEXT NOT NULL,
	saved_at TEXT NOT NULL
);`

// Storage локальный файловый кэш, аналог localStorage браузера
type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*Storage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("создание каталога кэша: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("Cache: Ошибка открытия SQLite", err)
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	// SQLite лучше работает с одним писателем
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("включение WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		logger.Error("Cache: Ошибка миграции SQLite", err)
		return nil, fmt.Errorf("миграция sqlite: %w", err)
	}

	logger.Info("Cache: Открыт SQLite кэш", zap.String("path", path))
	return &Storage{db: db}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	logger.Info("Cache: SQLite кэш закрыт")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Cache: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Save(ctx context.Context, tasks []*task.Task) error {
	start := time.Now()

	payload, err := repo.EncodeSnapshot(tasks)
	if err != nil {
		return err
	}

	query := `INSERT INTO task_snapshots (key, payload, saved_at)
				VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET
					payload = excluded.payload,
					saved_at = excluded.saved_at`

	_, err = s.db.ExecContext(ctx, query, repo.SnapshotKey, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		logger.Error("Cache: Не удалось сохранить снимок", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("сохранение снимка: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Cache: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Load(ctx context.Context) ([]*task.Task, time.Time, error) {
	var payload, savedAt string

	query := `SELECT payload, saved_at FROM task_snapshots WHERE key = ?`
	err := s.db.QueryRowContext(ctx, query, repo.SnapshotKey).Scan(&payload, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, repo.ErrCacheMiss
		}
		logger.Error("Cache: Не удалось прочитать снимок", err)
		return nil, time.Time{}, fmt.Errorf("чтение снимка: %w", err)
	}

	tasks, err := repo.DecodeSnapshot([]byte(payload))
	if err != nil {
		logger.Warn("Cache: Повреждённый снимок", zap.Error(err))
		return nil, time.Time{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		logger.Warn("Cache: Неверное время снимка", zap.String("saved_at", savedAt))
	}
	return tasks, ts, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM task_snapshots WHERE key = ?`, repo.SnapshotKey)
	if err != nil {
		return fmt.Errorf("очистка кэша: %w", err)
	}
	return nil
}
