package service

import (
	"errors"
	"fmt"
	"taskboard/internal/models/task"
	"taskboard/internal/store"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(id task.ID) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("задача %s не найдена", id),
		Details: map[string]any{
			"resource": "task",
			"id":       id.String(),
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewStoreUnavailable(operation string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeStoreUnavailable,
		Message: fmt.Sprintf("хранилище задач недоступно (%s)", operation),
		Details: map[string]any{
			"operation": operation,
		},
		Err: err,
	}
}

// fromStoreError переводит ошибку клиента хранилища в бизнес-ошибку
func fromStoreError(operation string, id task.ID, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFound(id)
	}
	return NewStoreUnavailable(operation, err)
}

func IsCode(err error, code string) bool {
	var busErr *BusinessError
	return errors.As(err, &busErr) && busErr.Code == code
}
