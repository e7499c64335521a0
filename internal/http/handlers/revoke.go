package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sebastos1/auth/internal/app"
	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/observability/logger"
)

// NewRevokeHandler atiende POST /revoke (RFC 7009). Intenta el token
// como access primero y como refresh después; en ambos casos el par
// asociado cae en cascada. Token desconocido o ajeno igual responde
// 200: la revocación nunca filtra existencia.
func NewRevokeHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed form body", httpx.CodeRevokeBadClient)
			return
		}

		ctx := r.Context()
		cl, err := authenticateClientSecret(ctx, c.Store, r)
		if err != nil {
			if errors.Is(err, errClientAuth) {
				httpx.WriteTokenError(w, "invalid_client", httpx.DescClientAuthFailed, httpx.CodeRevokeBadClient)
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "", httpx.CodeInternal)
			return
		}

		token := strings.TrimSpace(r.PostForm.Get("token"))
		if token == "" {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required", httpx.CodeRevokeBadClient)
			return
		}

		// token_type_hint se ignora: probamos ambos tipos igual.
		revoked, err := c.Store.RevokeAccessToken(ctx, token, cl.ClientID)
		if err != nil {
			logger.From(ctx).Error("access token revocation failed", logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "", httpx.CodeInternal)
			return
		}
		if revoked {
			httpx.RecordTokenRevoked("access_token", cl.ClientID)
			logger.From(ctx).Info("access token revoked", logger.ClientID(cl.ClientID))
			w.WriteHeader(http.StatusOK)
			return
		}

		revoked, err = c.Store.RevokeRefreshToken(ctx, token, cl.ClientID)
		if err != nil {
			logger.From(ctx).Error("refresh token revocation failed", logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "", httpx.CodeInternal)
			return
		}
		if revoked {
			httpx.RecordTokenRevoked("refresh_token", cl.ClientID)
			logger.From(ctx).Info("refresh token revoked", logger.ClientID(cl.ClientID))
		}

		// Desconocido o de otro client: 200 igual.
		w.WriteHeader(http.StatusOK)
	}
}
