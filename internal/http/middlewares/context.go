package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/sebastos1/auth/internal/store/core"
	"github.com/sebastos1/auth/internal/validation"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxAuthUserKey  ctxKey = "auth_user"
)

// AuthenticatedUser agrupa el usuario resuelto desde un bearer token y
// los scopes con los que fue emitido el token.
type AuthenticatedUser struct {
	User   *core.User
	Token  *core.AccessToken
	Scopes string
}

func (a *AuthenticatedUser) HasScope(name string) bool {
	return validation.HasScope(a.Scopes, name)
}

func (a *AuthenticatedUser) HasOpenID() bool  { return a.HasScope("openid") }
func (a *AuthenticatedUser) HasProfile() bool { return a.HasScope("profile") }
func (a *AuthenticatedUser) HasEmail() bool   { return a.HasScope("email") }
func (a *AuthenticatedUser) HasRoles() bool   { return a.HasScope("roles") }

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

func withAuthUser(ctx context.Context, au *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, ctxAuthUserKey, au)
}

// GetAuthUser obtiene el usuario autenticado del contexto.
// Retorna nil si RequireUser no se aplicó en la ruta.
func GetAuthUser(ctx context.Context) *AuthenticatedUser {
	if au, ok := ctx.Value(ctxAuthUserKey).(*AuthenticatedUser); ok {
		return au
	}
	return nil
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
