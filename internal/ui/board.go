package ui

import (
	"context"
	"fmt"
	"strings"
	"taskboard/internal/models/task"
	"taskboard/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("12")).Bold(true)
	filledStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	emptyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

type BoardService interface {
	Board(context.Context, task.Filter, bool) (*service.Board, error)
	Delete(context.Context, task.ID) error
}

type boardLoadedMsg struct {
	board *service.Board
	err   error
}

type deletedMsg struct {
	id  task.ID
	err error
}

type BoardModel struct {
	ctx      context.Context
	svc      BoardService
	filter   task.Filter
	board    *service.Board
	cursor   int
	status   string
	err      error
	quitting bool
}

func NewBoardModel(ctx context.Context, svc BoardService, filter task.Filter) BoardModel {
	if filter == "" {
		filter = task.FilterAll
	}
	return BoardModel{ctx: ctx, svc: svc, filter: filter}
}

func (m BoardModel) Init() tea.Cmd {
	return m.load(false)
}

func (m BoardModel) load(fresh bool) tea.Cmd {
	ctx, svc, filter := m.ctx, m.svc, m.filter
	return func() tea.Msg {
		board, err := svc.Board(ctx, filter, fresh)
		return boardLoadedMsg{board: board, err: err}
	}
}

func (m BoardModel) remove(id task.ID) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return deletedMsg{id: id, err: svc.Delete(ctx, id)}
	}
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.board = msg.board
		if m.cursor >= len(m.board.Tasks) {
			m.cursor = max(len(m.board.Tasks)-1, 0)
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = fmt.Sprintf("deleted %s", msg.id)
		return m, m.load(false)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.board != nil && m.cursor < len(m.board.Tasks)-1 {
				m.cursor++
			}

		case "f":
			m.filter = m.filter.Next()
			m.cursor = 0
			m.status = ""
			return m, m.load(false)

		case "r":
			m.status = "refreshing"
			return m, m.load(true)

		case "d":
			if selected := m.Selected(); selected != nil {
				return m, m.remove(selected.ID)
			}
		}
	}

	return m, nil
}

func (m BoardModel) Selected() *task.Task {
	if m.board == nil || m.cursor < 0 || m.cursor >= len(m.board.Tasks) {
		return nil
	}
	return m.board.Tasks[m.cursor].Task
}

func (m BoardModel) Filter() task.Filter {
	return m.filter
}

func (m BoardModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Tasks [%s]", m.filter)))
	s.WriteString("\n\n")

	switch {
	case m.board == nil && m.err == nil:
		s.WriteString(itemStyle.Render("loading..."))
		s.WriteString("\n")
	case m.board != nil && len(m.board.Tasks) == 0:
		s.WriteString(itemStyle.Render("no tasks"))
		s.WriteString("\n")
	case m.board != nil:
		for i, view := range m.board.Tasks {
			line := renderLine(view)
			if m.cursor == i {
				s.WriteString(selectedItemStyle.Render("> " + line))
			} else {
				s.WriteString(itemStyle.Render("  " + line))
			}
			s.WriteString("\n")
		}
		if m.board.Stale {
			s.WriteString(errorStyle.Render("\nstore unavailable, showing cached tasks"))
			s.WriteString("\n")
		}
	}

	if m.err != nil {
		s.WriteString(errorStyle.Render("\nerror: " + m.err.Error()))
		s.WriteString("\n")
	}
	if m.status != "" {
		s.WriteString(helpStyle.Render("\n" + m.status))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("\n(j/k move, f filter, r refresh, d delete, q quit)"))
	s.WriteString("\n")

	return s.String()
}

func renderLine(view service.TaskView) string {
	priority := "Low?"
	style := priorityStyles[task.PriorityLow]
	if view.ValidDue {
		priority = string(view.Bucket)
		style = priorityStyles[view.Bucket]
	}
	return fmt.Sprintf("%-28s %s %-10s %s %s",
		truncate(view.Task.Title, 28),
		style.Render(fmt.Sprintf("%-6s", priority)),
		view.Task.DueDate,
		renderStages(view),
		view.Task.Status)
}

func renderStages(view service.TaskView) string {
	var b strings.Builder
	for _, stage := range view.Stages {
		if stage.Filled {
			b.WriteString(filledStyle.Render("■"))
		} else {
			b.WriteString(emptyStyle.Render("□"))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func RunBoard(ctx context.Context, svc BoardService, filter task.Filter) error {
	p := tea.NewProgram(NewBoardModel(ctx, svc, filter), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
