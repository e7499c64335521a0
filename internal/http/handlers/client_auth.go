package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/sebastos1/auth/internal/observability/logger"
	"github.com/sebastos1/auth/internal/store/core"
)

// Errores del autenticador de clients. Los handlers los mapean a la
// respuesta OAuth que corresponda.
var (
	errClientAuth    = errors.New("client authentication failed")
	errOriginMissing = errors.New("no origin present")
	errOriginDenied  = errors.New("origin not authorized")
)

// authenticateClientSecret resuelve el client por Basic auth o, como
// fallback, por client_id/client_secret del form. Comparación en
// tiempo constante; nunca distingue client desconocido de secret malo.
func authenticateClientSecret(ctx context.Context, store core.Repository, r *http.Request) (*core.Client, error) {
	clientID, clientSecret, ok := basicAuth(r)
	if !ok {
		clientID = strings.TrimSpace(r.PostForm.Get("client_id"))
		clientSecret = r.PostForm.Get("client_secret")
	}
	if clientID == "" || clientSecret == "" {
		return nil, errClientAuth
	}

	cl, err := store.GetClientByID(ctx, clientID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			logger.From(ctx).Error("client lookup failed", logger.Err(err), logger.ClientID(clientID))
			return nil, err
		}
		return nil, errClientAuth
	}
	if subtle.ConstantTimeCompare([]byte(cl.ClientSecret), []byte(clientSecret)) != 1 {
		return nil, errClientAuth
	}
	return cl, nil
}

// basicAuth decodifica Authorization: Basic. Los credentials van
// form-urlencoded según RFC 6749 §2.3.1.
func basicAuth(r *http.Request) (id, secret string, ok bool) {
	ah := r.Header.Get("Authorization")
	const prefix = "Basic "
	if len(ah) <= len(prefix) || !strings.EqualFold(ah[:len(prefix)], prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(ah[len(prefix):])
	if err != nil {
		return "", "", false
	}
	idPart, secretPart, found := strings.Cut(string(raw), ":")
	if !found {
		return "", "", false
	}
	id, err = url.QueryUnescape(idPart)
	if err != nil {
		return "", "", false
	}
	secret, err = url.QueryUnescape(secretPart)
	if err != nil {
		return "", "", false
	}
	return id, secret, true
}

// effectiveOrigin compone el origin del request browser-facing.
// Preferimos X-Forwarded-Host (armado con X-Forwarded-Proto, default
// https) sobre el header Origin.
func effectiveOrigin(r *http.Request) string {
	if host := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); host != "" {
		proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))
		if proto == "" {
			proto = "https"
		}
		return proto + "://" + host
	}
	return strings.TrimSpace(r.Header.Get("Origin"))
}

// checkClientOrigin valida el origin efectivo contra los autorizados
// del client.
func checkClientOrigin(cl *core.Client, r *http.Request) error {
	origin := effectiveOrigin(r)
	if origin == "" {
		return errOriginMissing
	}
	if !cl.AllowsOrigin(origin) {
		return errOriginDenied
	}
	return nil
}
