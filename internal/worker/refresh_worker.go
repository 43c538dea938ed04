package worker

import (
	"context"
	"fmt"
	"taskboard/internal/classifier"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"time"

	"go.uber.org/zap"
)

type Refresher interface {
	Refresh(context.Context) ([]*task.Task, error)
	Now() time.Time
}

type RefreshWorker struct {
	svc      Refresher
	interval time.Duration
}

// Report итог одного прохода: сколько задач получено, по корзинам и с разошедшимся приоритетом
type Report struct {
	Fetched     int
	Diverged    int
	InvalidDate int
	Buckets     map[task.Priority]int
}

func NewRefreshWorker(svc Refresher, interval *time.Duration) *RefreshWorker {
	intervalToSet := 5 * time.Minute
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}
	return &RefreshWorker{
		svc:      svc,
		interval: intervalToSet,
	}
}

func (w *RefreshWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновое обновление запущено", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновое обновление списка задач", zap.Time("started_at", time.Now()))
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: ошибка обновления", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновое обновление останавливается")
			return
		}
	}
}

func (w *RefreshWorker) Check(ctx context.Context) (Report, error) {
	start := time.Now()

	tasks, err := w.svc.Refresh(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("обновление задач: %w", err)
	}

	now := w.svc.Now()
	report := Report{
		Fetched: len(tasks),
		Buckets: make(map[task.Priority]int),
	}

	for _, t := range tasks {
		if t == nil {
			continue
		}
		bucket, ok := classifier.Bucket(t, now)
		if !ok {
			report.InvalidDate++
		} else {
			report.Buckets[bucket]++
		}
		if classifier.Diverged(t, now) {
			report.Diverged++
		}
	}

	logger.Info(
		"Worker: Завершение обновления задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("fetched", report.Fetched),
		zap.Int("high", report.Buckets[task.PriorityHigh]),
		zap.Int("medium", report.Buckets[task.PriorityMedium]),
		zap.Int("low", report.Buckets[task.PriorityLow]),
		zap.Int("invalid_date", report.InvalidDate),
		zap.Int("diverged", report.Diverged),
	)
	return report, nil
}
