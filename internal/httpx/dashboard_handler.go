package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/dashboard"
)

type DashboardHandler struct {
	Dashboard *dashboard.Repo
	Log       *zap.Logger
}

func (h *DashboardHandler) Register(r chi.Router, auth *Auth) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(auth.RequireAuth, RequireAdmin)
		r.Get("/stats", h.stats)
		r.Get("/sales-chart", h.salesChart)
		r.Get("/top-games", h.topGames)
	})
}

func (h *DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		h.Log.Error("dashboard stats", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching dashboard statistics")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *DashboardHandler) salesChart(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "monthly"
	}
	points, err := h.Dashboard.SalesChart(r.Context(), period)
	if err != nil {
		h.Log.Error("sales chart", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching sales chart data")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *DashboardHandler) topGames(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	games, err := h.Dashboard.TopGames(r.Context(), limit)
	if err != nil {
		h.Log.Error("top games", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching top games data")
		return
	}
	writeJSON(w, http.StatusOK, games)
}
