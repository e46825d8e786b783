package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"survey-activation-engine/internal/observability"
)

func Router(h *SurveyHandler, mh *MonitorHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/surveys", h.List)
		r.Get("/surveys/{id}", h.Get)
		r.Put("/surveys/{id}", h.Put)
		r.Delete("/surveys/{id}", h.Delete)
		r.Get("/surveys/{id}/active", h.Active)
		r.Get("/surveys/{id}/active/first", h.FirstActive)
		r.Get("/surveys/{id}/active/any", h.AnyActive)
		r.Post("/reset", h.Reset)

		r.Route("/monitor", func(r chi.Router) {
			r.Get("/logs", mh.Logs)
			r.Post("/logs", mh.Ingest)
			r.Delete("/logs", mh.Clear)
			r.Get("/api-calls", mh.APICalls)
			r.Post("/api-calls", mh.RecordAPICall)
			r.Get("/state", mh.State)
			r.Put("/state", mh.PutState)
			r.Get("/export", mh.Export)
			r.Post("/start", mh.Start)
			r.Post("/stop", mh.Stop)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	return r
}
