// Package auth answers who the caller is and whether they may use the admin
// console. Callers carry an HS256 JWT in the Authorization header or the
// "jwt" cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
)

// Roles recognised by the site.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 24 * time.Hour

// Caller is the authenticated principal of a request.
type Caller struct {
	ID    string
	Email string
	Role  string
}

// IsAdmin reports whether the caller may use the admin console.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin || c.Role == RoleSuperAdmin
}

// Authenticator issues and verifies tokens.
type Authenticator struct {
	ja  *jwtauth.JWTAuth
	ttl time.Duration
}

// New returns an Authenticator signing with secret.
func New(secret string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		ja:  jwtauth.New("HS256", []byte(secret), nil),
		ttl: ttl,
	}, nil
}

// IssueToken returns a signed token for c.
func (a *Authenticator) IssueToken(c Caller) (string, error) {
	claims := map[string]interface{}{
		"sub":   c.ID,
		"email": c.Email,
		"role":  c.Role,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(a.ttl))

	_, token, err := a.ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verifier parses the request token, if any, into the request context. It
// never rejects a request; use RequireAdmin for that.
func (a *Authenticator) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(a.ja)
}

// CallerFromContext returns the caller identified by a verified token.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return Caller{}, false
	}
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	return Caller{ID: str("sub"), Email: str("email"), Role: str("role")}, true
}

// RequireAdmin rejects requests without a valid token (401) or whose caller
// is not an admin (403). It must run after Verifier.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Unauthorized"})
			return
		}
		if !caller.IsAdmin() {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, map[string]string{"error": "Forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
