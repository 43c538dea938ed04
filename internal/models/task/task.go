package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is assigned by the remote task store and is opaque to the client.
// json-server hands out numeric ids on older versions and string ids on newer ones,
// so both are accepted on decode and a string is always written back.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Task struct {
	ID          ID       `json:"id,omitempty" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Status      Stage    `json:"status" yaml:"status"`
	DueDate     string   `json:"dueDate" yaml:"due_date"`
	Priority    Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
}

type Priority string

const PriorityHigh Priority = "High"
const PriorityMedium Priority = "Medium"
const PriorityLow Priority = "Low"

type Stage string

const StageTaskAdded Stage = "Task Added"
const StageRequirementAnalysis Stage = "Requirement Analysis"
const StageTestPlanning Stage = "Test Planning"
const StageTestCaseDevelopment Stage = "Test Case Development"
const StageTestEnvironmentSetup Stage = "Test Environment Setup"
const StageTestExecution Stage = "Test Execution"
const StageCompleted Stage = "Completed"

// Stages is the fixed workflow order. It is both the status domain and the
// order of the progress segments.
var Stages = [...]Stage{
	StageTaskAdded,
	StageRequirementAnalysis,
	StageTestPlanning,
	StageTestCaseDevelopment,
	StageTestEnvironmentSetup,
	StageTestExecution,
	StageCompleted,
}

// Index returns the position of s in Stages, or -1 for an unknown stage.
func (s Stage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool {
	return s.Index() >= 0
}

type Filter string

const FilterAll Filter = "All"
const FilterHigh Filter = "High"
const FilterMedium Filter = "Medium"
const FilterLow Filter = "Low"

var Filters = [...]Filter{FilterAll, FilterHigh, FilterMedium, FilterLow}

// ParseFilter accepts the selector names case-insensitively; an empty value means All.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Next cycles All -> High -> Medium -> Low -> All.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Priority maps a bucket filter onto the priority it selects. All has none.
func (f Filter) Priority() (Priority, bool) {
	switch f {
	case FilterHigh:
		return PriorityHigh, true
	case FilterMedium:
		return PriorityMedium, true
	case FilterLow:
		return PriorityLow, true
	default:
		return "", false
	}
}
