package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/pixelvault/gamestore/internal/session"
)

type identityKey struct{}

// Auth resolves the session cookie into a caller identity and enforces
// role requirements.
type Auth struct {
	Sessions *session.Manager
}

func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized - Please login to access this resource")
			return
		}
		id, err := a.Sessions.Get(r.Context(), cookie.Value)
		if errors.Is(err, session.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized - Please login to access this resource")
			return
		}
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

// RequireUser rejects admin accounts; shopping routes are for customers.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || id.IsAdmin() {
			writeMessage(w, http.StatusForbidden, "Access denied: Regular user account required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.IsAdmin() {
			writeMessage(w, http.StatusForbidden, "Access denied: Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(session.Identity)
	return id, ok
}
