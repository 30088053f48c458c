package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
)

// Middleware resolves the acting principal from the Authorization header
// and stores it in the request context. Handlers downstream can assume
// an Actor is present.
type Middleware struct {
	verifier *Verifier
	logger   *slog.Logger
}

func NewMiddleware(verifier *Verifier, logger *slog.Logger) *Middleware {
	return &Middleware{verifier: verifier, logger: logger}
}

func (m *Middleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		actor, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Warn("token verification failed", "error", err, "path", r.URL.Path)
			writeAuthError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := internal.ContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole guards a route group with a role allow-list. The actor must
// already be resolved by RequireActor.
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := internal.ActorFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "actor not resolved")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.logger.Warn("role check failed",
				"employee_id", actor.EmployeeID,
				"role", actor.Role,
				"path", r.URL.Path)
			writeAuthError(w, http.StatusForbidden, "insufficient role")
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
		},
	})
}
