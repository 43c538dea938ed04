package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "":
		return formatTable, nil
	default:
		return "", fmt.Errorf("неизвестный формат вывода %q: ожидается table, json или yaml", s)
	}
}

// row плоское представление строки доски для json и yaml
type row struct {
	ID             task.ID       `json:"id" yaml:"id"`
	Title          string        `json:"title" yaml:"title"`
	Status         task.Stage    `json:"status" yaml:"status"`
	DueDate        string        `json:"dueDate" yaml:"due_date"`
	Priority       task.Priority `json:"priority" yaml:"priority"`
	StoredPriority task.Priority `json:"storedPriority,omitempty" yaml:"stored_priority,omitempty"`
	ValidDue       bool          `json:"validDue" yaml:"valid_due"`
	Progress       string        `json:"progress" yaml:"progress"`
}

func toRows(board *service.Board) []row {
	rows := make([]row, 0, len(board.Tasks))
	for _, view := range board.Tasks {
		priority := view.Bucket
		if !view.ValidDue {
			priority = task.PriorityLow
		}
		rows = append(rows, row{
			ID:             view.Task.ID,
			Title:          view.Task.Title,
			Status:         view.Task.Status,
			DueDate:        view.Task.DueDate,
			Priority:       priority,
			StoredPriority: view.Task.Priority,
			ValidDue:       view.ValidDue,
			Progress:       progress(view),
		})
	}
	return rows
}

func progress(view service.TaskView) string {
	var b strings.Builder
	for _, stage := range view.Stages {
		if stage.Filled {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func printBoard(w io.Writer, board *service.Board, format outputFormat) error {
	rows := toRows(board)

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDUE\tPRIORITY\tPROGRESS\tSTATUS")
	for _, r := range rows {
		priority := string(r.Priority)
		if !r.ValidDue {
			priority += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.DueDate, priority, r.Progress, r.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if board.Stale {
		fmt.Fprintf(w, "\nstore unavailable, cached at %s\n", board.SyncedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
