package handlers

import (
	"net/http"
	"taskboard/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	RateLimit      int
	AllowedOrigins []string
}

func NewRouter(h *TaskHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recover)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(opts.RateLimit))

	r.Get("/", h.BoardPage) // GET /?filter=

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateFromForm) // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/edit", h.EditPage)          // GET /tasks/{id}/edit
			r.Post("/", h.UpdateFromForm)       // POST /tasks/{id}
			r.Post("/delete", h.DeleteFromForm) // POST /tasks/{id}/delete
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins(opts.AllowedOrigins),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.GetBoard)  // GET /api/tasks?filter=&fresh=
			r.Post("/", h.PostTask) // POST /api/tasks

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", h.PutTask)       // PUT /api/tasks/{id}
				r.Delete("/", h.DeleteTask) // DELETE /api/tasks/{id}
			})
		})

		r.Get("/classify", h.Classify) // GET /api/classify?dueDate=
		r.Get("/stages", h.Stages)     // GET /api/stages?status=
	})

	r.Get("/health", h.HealthCheck)
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
