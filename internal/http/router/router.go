// Package router arma el árbol de rutas del servidor de autorización.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sebastos1/auth/internal/app"
	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/http/handlers"
	mw "github.com/sebastos1/auth/internal/http/middlewares"
)

// Deps contiene las dependencias para armar el router.
type Deps struct {
	Container *app.Container
	// MetricsHandler sirve /metrics; nil lo deshabilita.
	MetricsHandler http.Handler
	// CheckRedis es el ping opcional del backend redis para /readyz.
	CheckRedis func(ctx context.Context) error
}

// New registra todas las rutas con la cadena estándar de middlewares
// (request id, logging, métricas, recover).
func New(deps Deps) http.Handler {
	c := deps.Container
	r := chi.NewRouter()

	// Flujo de autorización (browser-facing)
	r.Get("/authorize", handlers.NewAuthorizeGetHandler(c))
	r.Post("/authorize", handlers.NewAuthorizePostHandler(c))
	r.Get("/register", handlers.NewRegisterGetHandler(c))
	r.Post("/register", handlers.NewRegisterPostHandler(c))
	r.Get("/success", handlers.NewSuccessHandler())

	// Endpoints OAuth2 (client-facing)
	r.Post("/token", handlers.NewTokenHandler(c))
	r.Post("/revoke", handlers.NewRevokeHandler(c))
	r.Get("/jwks.json", handlers.NewJWKSHandler(c.Issuer.JWKSJSON()))

	// Recursos protegidos por bearer token
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireUser(c.Store))
		r.Get("/userinfo", handlers.NewUserInfoHandler(c))
		r.Patch("/update/user", handlers.NewUpdateUserHandler(c))
	})

	// Operacional
	r.Get("/readyz", handlers.NewReadyzHandler(c, deps.CheckRedis))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return mw.Chain(r,
		mw.WithRequestID(),
		mw.WithLogging(),
		httpx.WithMetrics,
		mw.WithRecover(),
	)
}
