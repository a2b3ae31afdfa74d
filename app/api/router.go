package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes sets up the routes for the score server.
func (h *Handler) Routes(registry *prometheus.Registry) chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/submit", h.SubmitScore)
		r.Post("/ping", h.Ping)
		r.Post("/replay/{scoreID}", h.UploadReplay)
		r.Get("/leaderboard/{mapHash}", h.MapLeaderboard)
		r.Get("/player/{playerID}/stats", h.PlayerStats)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
