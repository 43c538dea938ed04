package handlers

import (
	"mime"
	"net/http"
	"strconv"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

func parseFilter(r *http.Request) (task.Filter, error) {
	raw := r.URL.Query().Get("filter")
	filter, err := task.ParseFilter(raw)
	if err != nil {
		return "", service.NewValidationError("filter", "ожидается All, High, Medium или Low")
	}
	return filter, nil
}

func parseFresh(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("fresh")
	if raw == "" {
		return false, nil
	}
	fresh, err := strconv.ParseBool(raw)
	if err != nil {
		return false, service.NewValidationError("fresh", "ожидается true или false")
	}
	return fresh, nil
}

func parseTaskID(raw string) (task.ID, error) {
	if raw == "" {
		return "", service.NewValidationError("id", "id не может быть пустым")
	}
	return task.ID(raw), nil
}
