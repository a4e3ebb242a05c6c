package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/catalog"
)

type GamesHandler struct {
	Catalog *catalog.Repo
	Log     *zap.Logger
}

func (h *GamesHandler) Register(r chi.Router, auth *Auth) {
	r.Route("/games", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.list)
		r.Get("/filter", h.filter)
		r.Get("/genres", h.genres)
		r.Get("/search", h.search)
		r.Get("/{gameID}", h.get)
	})
}

func (h *GamesHandler) list(w http.ResponseWriter, r *http.Request) {
	games, err := h.Catalog.List(r.Context())
	if err != nil {
		h.Log.Error("list games", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching data")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *GamesHandler) filter(w http.ResponseWriter, r *http.Request) {
	games, err := h.Catalog.FilterByGenre(r.Context(), r.URL.Query().Get("genre"))
	if err != nil {
		h.Log.Error("filter games", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching data")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *GamesHandler) genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Catalog.Genres(r.Context())
	if err != nil {
		h.Log.Error("list genres", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching genre data")
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *GamesHandler) search(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Search term is required"})
		return
	}
	games, err := h.Catalog.Search(r.Context(), title)
	if err != nil {
		h.Log.Error("search games", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error searching games")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *GamesHandler) get(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid game ID"})
		return
	}
	game, err := h.Catalog.GetByID(r.Context(), gameID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Game not found"})
		return
	}
	if err != nil {
		h.Log.Error("get game", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching game details")
		return
	}
	writeJSON(w, http.StatusOK, game)
}
