package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	repo "taskboard/internal/repository"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Storage общий кэш снимков для развёртываний, где веб-доска запущена в нескольких экземплярах
type Storage struct {
	pool       *pgxpool.Pool
	connString string
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Cache: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Cache: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Cache: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Cache: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, connString: connString}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Cache: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
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
				VALUES ($1, $2, NOW())
				ON CONFLICT (key) DO UPDATE SET
					payload = EXCLUDED.payload,
					saved_at = EXCLUDED.saved_at`

	_, err = s.pool.Exec(ctx, query, repo.SnapshotKey, payload)
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
	start := time.Now()

	var payload []byte
	var savedAt time.Time

	query := `SELECT payload, saved_at
				FROM task_snapshots
				WHERE key = $1`

	err := s.pool.QueryRow(ctx, query, repo.SnapshotKey).Scan(&payload, &savedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, repo.ErrCacheMiss
		}
		logger.Error("Cache: Не удалось прочитать снимок", err, zap.Duration("ms", time.Since(start)))
		return nil, time.Time{}, fmt.Errorf("чтение снимка: %w", err)
	}

	tasks, err := repo.DecodeSnapshot(payload)
	if err != nil {
		logger.Warn("Cache: Повреждённый снимок", zap.Error(err))
		return nil, time.Time{}, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Cache: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, savedAt, nil
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM task_snapshots WHERE key = $1`, repo.SnapshotKey)
	if err != nil {
		logger.Error("Cache: Не удалось очистить кэш", err)
		return fmt.Errorf("очистка кэша: %w", err)
	}
	return nil
}

// migrateURL переводит строку подключения на схему драйвера pgx/v5 для golang-migrate
func migrateURL(connString string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(connString, scheme) {
			return "pgx5://" + strings.TrimPrefix(connString, scheme)
		}
	}
	return connString
}

func (s *Storage) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(s.connString))
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Cache: Применение миграций")

	m, err := s.newMigrate()
	if err != nil {
		logger.Error("Cache: Ошибка миграций", err)
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Cache: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Cache: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Cache: Откат миграций")

	m, err := s.newMigrate()
	if err != nil {
		logger.Error("Cache: Ошибка миграций", err)
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Cache: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Cache: Миграции откачены")
	return nil
}
