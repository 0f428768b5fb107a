package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"helpdesk/infrastructure"
	"helpdesk/pkg/jwt"
)

type contextKey struct{ name string }

var identityKey = &contextKey{"identity"}

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity is used by tests to stub an authenticated request.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

type Middleware struct {
	tokens *jwt.Manager
}

func NewMiddleware(tokens *jwt.Manager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Require validates the bearer token and attaches the caller's identity.
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			infrastructure.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := m.tokens.Validate(token)
		if err != nil {
			if errors.Is(err, infrastructure.ErrTokenExpired) {
				infrastructure.WriteError(w, http.StatusUnauthorized, "token expired")
				return
			}
			infrastructure.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			infrastructure.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := WithIdentity(r.Context(), Identity{UserID: userID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireRole further restricts a route to the given roles. Admin always
// passes.
func (m *Middleware) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.Require(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				infrastructure.WriteError(w, http.StatusUnauthorized, "missing identity")
				return
			}
			if id.Role != "admin" && !allowed[id.Role] {
				infrastructure.WriteError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
