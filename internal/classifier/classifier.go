// Package classifier holds the priority, filter and ordering rules for tasks.
// Every function is pure: callers pass one "now" per render pass so that
// classification, filtering and sorting agree with each other.
package classifier

import (
	"sort"
	"strings"
	"time"

	"taskboard/internal/models/task"
)

const (
	HighWindowDays   = 14
	MediumWindowDays = 30
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDueDate reads a calendar date as stored by the task store. Date-only values
// are taken as midnight UTC.
func ParseDueDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if due, err := time.Parse(layout, raw); err == nil {
			return due, true
		}
	}
	return time.Time{}, false
}

// Classify assigns the priority bucket for a due date. Both window edges are inclusive.
func Classify(due, now time.Time) task.Priority {
	switch {
	case !due.After(now.AddDate(0, 0, HighWindowDays)):
		return task.PriorityHigh
	case !due.After(now.AddDate(0, 0, MediumWindowDays)):
		return task.PriorityMedium
	default:
		return task.PriorityLow
	}
}

// ClassifyDate is Classify over the raw stored value. An unparseable date is Low.
func ClassifyDate(raw string, now time.Time) task.Priority {
	due, ok := ParseDueDate(raw)
	if !ok {
		return task.PriorityLow
	}
	return Classify(due, now)
}

// Bucket is the live bucket of t at now. ok is false when the due date cannot be parsed.
func Bucket(t *task.Task, now time.Time) (task.Priority, bool) {
	due, ok := ParseDueDate(t.DueDate)
	if !ok {
		return "", false
	}
	return Classify(due, now), true
}

// Matches reports whether t passes filter at now. The bucket is re-derived from the
// due date; the stored priority is ignored.
func Matches(t *task.Task, filter task.Filter, now time.Time) bool {
	want, bucketed := filter.Priority()
	if !bucketed {
		return true
	}
	got, ok := Bucket(t, now)
	return ok && got == want
}

// FilterAndSort returns the tasks passing filter, ascending by due date.
// Unparseable dates go last and equal dates keep their input order.
// The input slice is left untouched.
func FilterAndSort(tasks []*task.Task, filter task.Filter, now time.Time) []*task.Task {
	type entry struct {
		task  *task.Task
		due   time.Time
		valid bool
	}

	entries := make([]entry, 0, len(tasks))
	for _, t := range tasks {
		if t == nil || !Matches(t, filter, now) {
			continue
		}
		due, ok := ParseDueDate(t.DueDate)
		entries = append(entries, entry{task: t, due: due, valid: ok})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.valid != b.valid {
			return a.valid
		}
		return a.valid && a.due.Before(b.due)
	})

	res := make([]*task.Task, len(entries))
	for i, e := range entries {
		res[i] = e.task
	}
	return res
}

// Diverged reports whether the priority stored at submit time no longer matches the
// live bucket. Filtering never uses this; it is only surfaced for diagnostics.
func Diverged(t *task.Task, now time.Time) bool {
	if t.Priority == "" {
		return false
	}
	return ClassifyDate(t.DueDate, now) != t.Priority
}

type StageView struct {
	Stage  task.Stage `json:"stage"`
	Filled bool       `json:"filled"`
}

// RenderStages projects status onto the fixed stage sequence. An unknown status
// fills nothing.
func RenderStages(status task.Stage) []StageView {
	index := status.Index()
	views := make([]StageView, len(task.Stages))
	for i, stage := range task.Stages {
		views[i] = StageView{Stage: stage, Filled: i <= index}
	}
	return views
}
