package service

import "taskboard/internal/models/task"

// FormMode says where a submission goes: a new task or an update of one task.
// The zero value is Creating.
type FormMode struct {
	editing bool
	id      task.ID
}

func Creating() FormMode {
	return FormMode{}
}

func Editing(id task.ID) FormMode {
	return FormMode{editing: true, id: id}
}

func (m FormMode) IsEditing() bool {
	return m.editing
}

// TaskID is empty in Creating mode.
func (m FormMode) TaskID() task.ID {
	return m.id
}

// Draft is the user-entered part of a task. Priority is never part of it.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      task.Stage `json:"status"`
	DueDate     string     `json:"dueDate"`
}

func DraftFrom(t *task.Task) Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
	}
}
