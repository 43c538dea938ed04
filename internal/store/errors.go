package store

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("задача не найдена в хранилище")

// StatusError неуспешный ответ хранилища задач
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: статус %d: %s", e.Method, e.Path, e.Code, e.Body)
	}
	return fmt.Sprintf("%s %s: статус %d", e.Method, e.Path, e.Code)
}

func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}
