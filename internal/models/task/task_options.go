package task

import "strings"

type TaskOption func(*Task)

// New builds a task from options. Nil options are skipped, which lets
// callers pass conditional options without branching.
func New(options ...TaskOption) *Task {
	t := &Task{Status: StageTaskAdded}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Stage) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithDueDate(dueDate string) TaskOption {
	dueDate = strings.TrimSpace(dueDate)
	if dueDate == "" {
		return nil
	}
	return func(task *Task) {
		task.DueDate = dueDate
	}
}

func WithPriority(priority Priority) TaskOption {
	return func(task *Task) {
		task.Priority = priority
	}
}
