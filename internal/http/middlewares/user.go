package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/observability/logger"
	"github.com/sebastos1/auth/internal/store/core"
)

// RequireUser valida Authorization: Bearer <token opaco> contra el
// store y deja el AuthenticatedUser en el contexto. El lookup ya
// filtra tokens expirados, así que acá solo distinguimos presente de
// ausente. Responde 401 con invalid_token en cualquier fallo.
func RequireUser(store core.Repository) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])
			if raw == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			at, err := store.GetAccessToken(r.Context(), raw)
			if err != nil {
				if !errors.Is(err, core.ErrNotFound) {
					logger.From(r.Context()).Error("access token lookup failed", logger.Err(err))
				}
				writeUnauthorized(w, "token is invalid, expired, or revoked")
				return
			}

			u, err := store.GetUserByID(r.Context(), at.UserID)
			if err != nil || !u.IsActive {
				writeUnauthorized(w, "token is invalid, expired, or revoked")
				return
			}

			au := &AuthenticatedUser{User: u, Token: at, Scopes: at.Scopes}
			next.ServeHTTP(w, r.WithContext(withAuthUser(r.Context(), au)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":             "invalid_token",
		"error_description": desc,
		"error_code":        httpx.CodeUnauthenticated,
	})
}
