package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every HTTP route. Handlers stay thin; all domain rules live
// in the services they delegate to.
func NewRouter(
	health *HealthHandler,
	intents *IntentHandler,
	planGen *PlanHandler,
	scheduling *ScheduleHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/intent/resolve", intents.Resolve)
	r.Post("/plans/{kind}", planGen.Generate)

	r.Route("/doctors/{doctorID}", func(r chi.Router) {
		r.Get("/slots", scheduling.ListSlots)
		r.Put("/availability", scheduling.ReplaceAvailability)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", scheduling.Book)
		r.Get("/{id}", scheduling.Get)
		r.Post("/{id}/confirm", scheduling.Confirm)
		r.Post("/{id}/cancel", scheduling.Cancel)
		r.Post("/{id}/complete", scheduling.Complete)
	})

	return r
}
