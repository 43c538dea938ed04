package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/models/task"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// Client ходит в удалённое REST-хранилище задач (json-server: /tasks, /tasks/{id})
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

func WithMaxRetries(retries uint64) Option {
	return func(c *Client) {
		c.maxRetries = retries
	}
}

func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("адрес хранилища: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("адрес хранилища %q: нужна схема http или https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}

	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Client) List(ctx context.Context) ([]*task.Task, error) {
	tasks := []*task.Task{}
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks, true); err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (c *Client) Get(ctx context.Context, id task.ID) (*task.Task, error) {
	t := &task.Task{}
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, t, true); err != nil {
		return nil, fmt.Errorf("получение задачи %s: %w", id, err)
	}
	return t, nil
}

// Create не повторяется при ошибках: POST не идемпотентен
func (c *Client) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	body := *t
	body.ID = ""

	created := &task.Task{}
	if err := c.do(ctx, http.MethodPost, "/tasks", &body, created, false); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}
	if created.ID == "" {
		logger.Warn("Store: Хранилище не вернуло id созданной задачи")
		return &body, nil
	}
	return created, nil
}

func (c *Client) Update(ctx context.Context, id task.ID, t *task.Task) (*task.Task, error) {
	body := *t
	body.ID = id

	updated := &task.Task{}
	if err := c.do(ctx, http.MethodPut, taskPath(id), &body, updated, true); err != nil {
		return nil, fmt.Errorf("обновление задачи %s: %w", id, err)
	}
	if updated.ID == "" {
		return &body, nil
	}
	return updated, nil
}

func (c *Client) Delete(ctx context.Context, id task.ID) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, true); err != nil {
		return fmt.Errorf("удаление задачи %s: %w", id, err)
	}
	return nil
}

func taskPath(id task.ID) string {
	return "/tasks/" + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, retry bool) error {
	start := time.Now()

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("кодирование запроса: %w", err)
		}
	}

	requestID := middleware.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	attempts := 0
	op := func() error {
		attempts++

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("формирование запроса: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			logger.Warn("Store: Ошибка транспорта",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempts),
				zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(ErrNotFound)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			statusErr := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if statusErr.Temporary() {
				logger.Warn("Store: Временная ошибка хранилища",
					zap.Int("status", resp.StatusCode),
					zap.Int("attempt", attempts))
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("чтение ответа: %w", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("разбор ответа: %w", err))
		}
		return nil
	}

	var err error
	if retry {
		b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
		err = backoff.Retry(op, b)
	} else {
		err = op()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("attempts", attempts),
		zap.Duration("ms", time.Since(start)),
	}

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Info("Store: Задача не найдена", fields...)
		} else {
			logger.Error("Store: Запрос завершился ошибкой", err, fields...)
		}
		return err
	}

	if time.Since(start) > 500*time.Millisecond {
		logger.Warn("Store: Медленный запрос", fields...)
	} else {
		logger.Debug("Store: Запрос выполнен", fields...)
	}
	return nil
}
