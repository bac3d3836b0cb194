package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Authenticator, http.Handler) {
	t.Helper()
	a, err := New("test-secret", time.Hour)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(a.Verifier())
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFromContext(r.Context())
		json.NewEncoder(w).Encode(map[string]any{"ok": ok, "email": c.Email, "admin": c.IsAdmin()})
	})
	r.With(RequireAdmin).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return a, r
}

func request(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("", 0)
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	a, h := setup(t)

	admin, err := a.IssueToken(Caller{ID: "1", Email: "admin@example.org", Role: RoleAdmin})
	require.NoError(t, err)
	super, err := a.IssueToken(Caller{ID: "2", Email: "root@example.org", Role: RoleSuperAdmin})
	require.NoError(t, err)
	user, err := a.IssueToken(Caller{ID: "3", Email: "user@example.org", Role: RoleUser})
	require.NoError(t, err)

	other, err := New("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.IssueToken(Caller{ID: "4", Role: RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"admin", admin, http.StatusNoContent},
		{"super admin", super, http.StatusNoContent},
		{"user", user, http.StatusForbidden},
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "not-a-token", http.StatusUnauthorized},
		{"wrong key", forged, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := request(t, h, "/admin", tt.token)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	a, h := setup(t)
	a.ttl = -time.Minute
	token, err := a.IssueToken(Caller{ID: "1", Role: RoleAdmin})
	require.NoError(t, err)

	rr := request(t, h, "/admin", token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCallerFromContext(t *testing.T) {
	a, h := setup(t)
	token, err := a.IssueToken(Caller{ID: "1", Email: "admin@example.org", Role: RoleAdmin})
	require.NoError(t, err)

	var body map[string]any
	rr := request(t, h, "/whoami", token)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin@example.org", body["email"])
	assert.Equal(t, true, body["admin"])

	rr = request(t, h, "/whoami", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
}
