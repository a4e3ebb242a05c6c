package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/session"
	"github.com/pixelvault/gamestore/internal/users"
)

type AuthHandler struct {
	Users    *users.Repo
	Sessions *session.Manager
	Log      *zap.Logger
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Get("/logout", h.logout)
		r.Get("/status", h.status)
	})
}

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	id, err := h.Users.Create(r.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, users.ErrEmailTaken) {
		writeMessage(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		h.Log.Error("signup", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"userId":  id,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.Log.Error("login", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	identity := session.Identity{
		UserID:   u.UserID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
	token, err := h.Sessions.Create(r.Context(), identity)
	if err != nil {
		h.Log.Error("create session", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Login successful",
		"user":            identity,
		"isAuthenticated": true,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	if err := h.Sessions.Destroy(r.Context(), cookie.Value); err != nil {
		h.Log.Error("destroy session", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to logout")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) status(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"isAuthenticated": false, "user": nil})
		return
	}
	id, err := h.Sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"isAuthenticated": false, "user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isAuthenticated": true, "user": id})
}
