package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelvault/gamestore/internal/session"
)

func newAuth(t *testing.T) (*Auth, *session.Manager) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mgr := session.NewManager(rdb, time.Hour)
	return &Auth{Sessions: mgr}, mgr
}

func loginAs(t *testing.T, mgr *session.Manager, id session.Identity) *http.Cookie {
	t.Helper()
	token, err := mgr.Create(context.Background(), id)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func protectedRouter(auth *Auth, role func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		if role != nil {
			r.Use(role)
		}
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFrom(r.Context())
			writeJSON(w, http.StatusOK, map[string]any{"user_id": id.UserID})
		})
	})
	return r
}

func TestRequireAuthNoCookie(t *testing.T) {
	auth, _ := newAuth(t)
	r := protectedRouter(auth, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthBadToken(t *testing.T) {
	auth, _ := newAuth(t)
	r := protectedRouter(auth, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthPassesIdentity(t *testing.T) {
	auth, mgr := newAuth(t)
	r := protectedRouter(auth, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(loginAs(t, mgr, session.Identity{UserID: 42, Role: "user"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":42}`, rec.Body.String())
}

func TestRequireUserRejectsAdmin(t *testing.T) {
	auth, mgr := newAuth(t)
	r := protectedRouter(auth, RequireUser)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(loginAs(t, mgr, session.Identity{UserID: 1, Role: "admin"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminRejectsUser(t *testing.T) {
	auth, mgr := newAuth(t)
	r := protectedRouter(auth, RequireAdmin)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(loginAs(t, mgr, session.Identity{UserID: 2, Role: "user"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	auth, mgr := newAuth(t)
	r := protectedRouter(auth, RequireAdmin)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(loginAs(t, mgr, session.Identity{UserID: 3, Role: "admin"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
