package repository

import (
	"encoding/json"
	"fmt"
	"taskboard/internal/models/task"
)

// SnapshotKey is the single row every persistent cache keeps the task list under.
const SnapshotKey = "tasks"

func EncodeSnapshot(tasks []*task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []*task.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("кодирование снимка: %w", err)
	}
	return payload, nil
}

func DecodeSnapshot(payload []byte) ([]*task.Task, error) {
	tasks := []*task.Task{}
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return tasks, nil
}
