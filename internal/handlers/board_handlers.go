package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var boardTemplate = template.Must(
	template.New("board.html").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(templateFS, "templates/board.html"),
)

type boardPage struct {
	Board   *service.Board
	Filters []task.Filter
	Stages  []task.Stage
	Mode    service.FormMode
	Draft   service.Draft
}

func (s *TaskHandler) BoardPage(w http.ResponseWriter, r *http.Request) {
	s.renderBoard(w, r, service.Creating(), service.Draft{Status: task.StageTaskAdded})
}

func (s *TaskHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		pageError(w, err)
		return
	}

	mode, draft, err := s.TaskService.BeginEdit(r.Context(), id)
	if err != nil {
		pageError(w, err)
		return
	}
	s.renderBoard(w, r, mode, draft)
}

func (s *TaskHandler) renderBoard(w http.ResponseWriter, r *http.Request, mode service.FormMode, draft service.Draft) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	filter, err := parseFilter(r)
	if err != nil {
		pageError(w, err)
		return
	}
	fresh, err := parseFresh(r)
	if err != nil {
		pageError(w, err)
		return
	}

	board, err := s.TaskService.Board(r.Context(), filter, fresh)
	if err != nil {
		pageError(w, err)
		return
	}

	page := boardPage{
		Board:   board,
		Filters: task.Filters[:],
		Stages:  task.Stages[:],
		Mode:    mode,
		Draft:   draft,
	}

	var buf bytes.Buffer
	if err := boardTemplate.Execute(&buf, page); err != nil {
		logger.Error("HTTP: Ошибка шаблона", err)
		http.Error(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)

	logger.Debug("HTTP_OUT: Доска отрисована",
		zap.Bool("editing", mode.IsEditing()),
		zap.Int("count", len(board.Tasks)),
		zap.Duration("ms", time.Since(start)))
}

func (s *TaskHandler) CreateFromForm(w http.ResponseWriter, r *http.Request) {
	s.submitForm(w, r, service.Creating())
}

func (s *TaskHandler) UpdateFromForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		pageError(w, err)
		return
	}
	s.submitForm(w, r, service.Editing(id))
}

func (s *TaskHandler) submitForm(w http.ResponseWriter, r *http.Request, mode service.FormMode) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if err := r.ParseForm(); err != nil {
		logger.Warn("HTTP: ошибка чтения формы", zap.Error(err))
		http.Error(w, "неверная форма: "+err.Error(), http.StatusBadRequest)
		return
	}

	request := dto.TaskRequest{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Status:      r.PostForm.Get("status"),
		DueDate:     r.PostForm.Get("dueDate"),
	}

	if _, err := s.TaskService.Submit(r.Context(), mode, request.ToDraft()); err != nil {
		pageError(w, err)
		return
	}
	redirectToBoard(w, r)
}

func (s *TaskHandler) DeleteFromForm(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		pageError(w, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "неверная форма: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.TaskService.Delete(r.Context(), id); err != nil {
		pageError(w, err)
		return
	}
	redirectToBoard(w, r)
}

// redirectToBoard возвращает на доску с тем же фильтром, форма снова в режиме создания
func redirectToBoard(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if filter, err := task.ParseFilter(r.PostForm.Get("filter")); err == nil && filter != task.FilterAll {
		target += "?" + url.Values{"filter": {string(filter)}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
