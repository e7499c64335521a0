package middlewares

import (
	"encoding/json"
	"net/http"

	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/observability/logger"
	"go.uber.org/zap"
)

// WithRecover atrapa panics, los loguea y responde 500.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						zap.Any("panic", rec),
						logger.Path(r.URL.Path),
					)
					w.Header().Set("Content-Type", "application/json; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"error":             "server_error",
						"error_description": "internal server error",
						"error_code":        httpx.CodePanic,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
