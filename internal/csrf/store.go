// Package csrf emite y consume tokens CSRF de un solo uso con TTL.
//
// El store es una interfaz para poder correr single-instance (map en
// proceso via go-cache) o multi-instance (Redis) sin tocar los handlers.
package csrf

import (
	"context"
	"time"

	tokens "github.com/sebastos1/auth/internal/security/token"
)

// DefaultTTL es la vida útil de un token de formulario.
const DefaultTTL = 30 * time.Minute

type Store interface {
	// Issue genera un token opaco y lo registra con el TTL del store.
	Issue(ctx context.Context) (string, error)

	// Consume valida y quema el token: una segunda llamada con el mismo
	// token retorna false.
	Consume(ctx context.Context, token string) bool
}

func newToken() (string, error) {
	return tokens.GenerateOpaqueToken(32)
}
