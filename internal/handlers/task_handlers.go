package handlers

import (
	"encoding/json"
	"net/http"
	"taskboard/internal/classifier"
	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	filter, err := parseFilter(r)
	if err != nil {
		handleError(w, err)
		return
	}
	fresh, err := parseFresh(r)
	if err != nil {
		handleError(w, err)
		return
	}

	board, err := s.TaskService.Board(r.Context(), filter, fresh)
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "board"),
			zap.String("client_ip", r.RemoteAddr))
		handleError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Доска получена",
		zap.String("filter", string(filter)),
		zap.Int("count", len(board.Tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, board)
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, service.Creating(), http.StatusCreated)
}

func (s *TaskHandler) PutTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	s.submit(w, r, service.Editing(id), http.StatusOK)
}

func (s *TaskHandler) submit(w http.ResponseWriter, r *http.Request, mode service.FormMode, okStatus int) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	saved, err := s.TaskService.Submit(r.Context(), mode, request.ToDraft())
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err,
			zap.Bool("editing", mode.IsEditing()),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		handleError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача сохранена",
		zap.String("task_id", saved.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", okStatus))

	responseWithBody(w, okStatus, saved)
}

func (s *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseTaskID(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	if err := s.TaskService.Delete(r.Context(), id); err != nil {
		logger.Error("HTTP: Ошибка в Service", err,
			zap.String("operation", "delete_task"),
			zap.String("client_ip", r.RemoteAddr))
		handleError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (s *TaskHandler) Classify(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	raw := r.URL.Query().Get("dueDate")
	now := s.TaskService.Now()
	_, valid := classifier.ParseDueDate(raw)

	responseWithBody(w, http.StatusOK, dto.ClassifyResponse{
		DueDate:  raw,
		Priority: classifier.ClassifyDate(raw, now),
		Valid:    valid,
	})
}

func (s *TaskHandler) Stages(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	status := task.Stage(r.URL.Query().Get("status"))
	responseWithBody(w, http.StatusOK, classifier.RenderStages(status))
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Health check не пройден", err)
		responseWithBody(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	responseWithBody(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}
