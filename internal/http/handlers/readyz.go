package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/sebastos1/auth/internal/app"
	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/observability/logger"
)

// NewReadyzHandler chequea store y, opcionalmente, el backend redis
// del CSRF store.
func NewReadyzHandler(c *app.Container, checkRedis func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if v := os.Getenv("SERVICE_VERSION"); v != "" {
			w.Header().Set("X-Service-Version", v)
		}

		if err := c.Store.Ping(r.Context()); err != nil {
			logger.From(r.Context()).Error("readyz: store unavailable", logger.Err(err))
			httpx.WriteError(w, http.StatusServiceUnavailable, "db_unavailable", "database unavailable", 2001)
			return
		}

		if checkRedis != nil {
			if err := checkRedis(r.Context()); err != nil {
				logger.From(r.Context()).Error("readyz: redis unavailable", logger.Err(err))
				httpx.WriteError(w, http.StatusServiceUnavailable, "redis_unavailable", "redis unavailable", 2003)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
