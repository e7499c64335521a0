package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sebastos1/auth/internal/app"
	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/observability/logger"
	"github.com/sebastos1/auth/internal/security/pkce"
	tokens "github.com/sebastos1/auth/internal/security/token"
	"github.com/sebastos1/auth/internal/store/core"
	"github.com/sebastos1/auth/internal/validation"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // segundos
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token,omitempty"`
}

// NewTokenHandler atiende POST /token para los grants
// authorization_code (con PKCE) y refresh_token (con rotación).
func NewTokenHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// OAuth2: application/x-www-form-urlencoded
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		if err := r.ParseForm(); err != nil {
			httpx.WriteTokenError(w, "invalid_request", "malformed form body", httpx.CodeTokenMissingParam)
			return
		}

		ctx := r.Context()
		cl, err := authenticateClientSecret(ctx, c.Store, r)
		if err != nil {
			if errors.Is(err, errClientAuth) {
				httpx.WriteTokenError(w, "invalid_client", httpx.DescClientAuthFailed, httpx.CodeTokenBadClient)
				return
			}
			httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
			return
		}

		grantType := strings.TrimSpace(r.PostForm.Get("grant_type"))
		switch grantType {
		case "authorization_code":
			handleAuthorizationCode(w, r, c, cl)
		case "refresh_token":
			handleRefreshToken(w, r, c, cl)
		default:
			httpx.WriteTokenError(w, "unsupported_grant_type",
				"supported grant types: authorization_code, refresh_token", httpx.CodeTokenBadGrant)
		}
	}
}

// ───────────────── authorization_code + PKCE ─────────────────

func handleAuthorizationCode(w http.ResponseWriter, r *http.Request, c *app.Container, cl *core.Client) {
	code := strings.TrimSpace(r.PostForm.Get("code"))
	redirectURI := strings.TrimSpace(r.PostForm.Get("redirect_uri"))
	verifier := strings.TrimSpace(r.PostForm.Get("code_verifier"))

	if code == "" || redirectURI == "" || verifier == "" {
		httpx.WriteTokenError(w, "invalid_request",
			"code, redirect_uri, and code_verifier are required", httpx.CodeTokenMissingParam)
		return
	}

	ctx := r.Context()
	ac, err := c.Store.GetAuthorizationCode(ctx, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httpx.WriteTokenError(w, "invalid_grant", httpx.DescCodeConsumed, httpx.CodeTokenBadCode)
			return
		}
		logger.From(ctx).Error("authorization code lookup failed", logger.Err(err))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}

	if ac.ClientID != cl.ClientID || ac.RedirectURI != redirectURI {
		httpx.WriteTokenError(w, "invalid_grant", httpx.DescCodeConsumed, httpx.CodeTokenBadRedirect)
		return
	}
	if !pkce.VerifyS256(verifier, ac.CodeChallenge) {
		httpx.WriteTokenError(w, "invalid_grant", httpx.DescBadVerifier, httpx.CodeTokenBadVerifier)
		return
	}

	// Un code que referencia un user inexistente es corrupción interna,
	// no un error del caller.
	u, err := c.Store.GetUserByID(ctx, ac.UserID)
	if err != nil {
		logger.From(ctx).Error("user referenced by code is missing",
			logger.Err(err), logger.UserID(ac.UserID))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}

	at, rt, err := mintTokenPair(cl.ClientID, ac.UserID, ac.Scopes)
	if err != nil {
		logger.From(ctx).Error("token generation failed", logger.Err(err))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}

	// Redeem borra el code y crea ambos tokens en una transacción; si
	// otro request lo consumió primero, acá sale ErrNotFound.
	if err := c.Store.RedeemAuthorizationCode(ctx, code, at, rt); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httpx.WriteTokenError(w, "invalid_grant", httpx.DescCodeConsumed, httpx.CodeTokenBadCode)
			return
		}
		logger.From(ctx).Error("code redemption failed", logger.Err(err))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}

	writeTokenResponse(w, r, c, cl, u, at, rt, "authorization_code")
}

// ───────────────── refresh_token (rotación) ─────────────────

func handleRefreshToken(w http.ResponseWriter, r *http.Request, c *app.Container, cl *core.Client) {
	raw := strings.TrimSpace(r.PostForm.Get("refresh_token"))
	if raw == "" {
		httpx.WriteTokenError(w, "invalid_request", "refresh_token is required", httpx.CodeTokenMissingParam)
		return
	}

	ctx := r.Context()
	old, err := c.Store.GetRefreshToken(ctx, raw)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httpx.WriteTokenError(w, "invalid_grant", httpx.DescBadRefresh, httpx.CodeTokenBadRefresh)
			return
		}
		logger.From(ctx).Error("refresh token lookup failed", logger.Err(err))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}
	if old.ClientID != cl.ClientID {
		httpx.WriteTokenError(w, "invalid_grant", httpx.DescBadRefresh, httpx.CodeTokenBadRefresh)
		return
	}

	u, err := c.Store.GetUserByID(ctx, old.UserID)
	if err != nil {
		logger.From(ctx).Error("user referenced by refresh token is missing",
			logger.Err(err), logger.UserID(old.UserID))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}

	at, rt, err := mintTokenPair(cl.ClientID, old.UserID, old.Scopes)
	if err != nil {
		logger.From(ctx).Error("token generation failed", logger.Err(err))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}

	// Rotación obligatoria: el refresh viejo muere en la misma
	// transacción que emite el reemplazo.
	if err := c.Store.RotateRefreshToken(ctx, old, at, rt); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httpx.WriteTokenError(w, "invalid_grant", httpx.DescBadRefresh, httpx.CodeTokenBadRefresh)
			return
		}
		logger.From(ctx).Error("refresh rotation failed", logger.Err(err))
		httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
		return
	}

	writeTokenResponse(w, r, c, cl, u, at, rt, "refresh_token")
}

// ───────────────── shared ─────────────────

func mintTokenPair(clientID, userID, scopes string) (*core.AccessToken, *core.RefreshToken, error) {
	access, err := tokens.GenerateOpaqueToken(48)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := tokens.GenerateOpaqueToken(48)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	at := &core.AccessToken{
		Token:     access,
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: now.Add(core.AccessTokenTTL),
		CreatedAt: now,
	}
	rt := &core.RefreshToken{
		Token:       refresh,
		AccessToken: access,
		ClientID:    clientID,
		UserID:      userID,
		Scopes:      scopes,
		ExpiresAt:   now.Add(core.RefreshTokenTTL),
		CreatedAt:   now,
	}
	return at, rt, nil
}

func writeTokenResponse(w http.ResponseWriter, r *http.Request, c *app.Container, cl *core.Client, u *core.User, at *core.AccessToken, rt *core.RefreshToken, grantType string) {
	resp := tokenResponse{
		AccessToken:  at.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(core.AccessTokenTTL.Seconds()),
		RefreshToken: rt.Token,
		Scope:        at.Scopes,
	}

	if validation.HasScope(at.Scopes, "openid") {
		idToken, err := c.Issuer.IssueIDToken(u, cl.ClientID, at.Scopes)
		if err != nil {
			logger.From(r.Context()).Error("id token signing failed", logger.Err(err))
			httpx.WriteTokenError(w, "server_error", "", httpx.CodeInternal)
			return
		}
		resp.IDToken = idToken
	}

	httpx.RecordTokenIssued(grantType, cl.ClientID)
	logger.From(r.Context()).Info("tokens issued",
		logger.GrantType(grantType), logger.ClientID(cl.ClientID), logger.UserID(u.ID))

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httpx.WriteJSON(w, http.StatusOK, resp)
}
