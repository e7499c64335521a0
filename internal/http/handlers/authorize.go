package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sebastos1/auth/internal/app"
	"github.com/sebastos1/auth/internal/http/templates"
	"github.com/sebastos1/auth/internal/observability/logger"
	tokens "github.com/sebastos1/auth/internal/security/token"
	"github.com/sebastos1/auth/internal/store/core"
	"github.com/sebastos1/auth/internal/validation"
)

const loginTitle = "Login - OAuth2 Server"

// NewAuthorizeGetHandler renderiza el formulario de login del flujo
// authorization_code. Valida client, origin, redirect_uri, PKCE y
// scopes antes de mostrar nada; cualquier fallo es página de error,
// nunca redirect con code.
func NewAuthorizeGetHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if rt := q.Get("response_type"); rt != "" && rt != "code" {
			renderError(w, http.StatusBadRequest, "unsupported_response_type",
				"only response_type=code is supported")
			return
		}

		clientID := strings.TrimSpace(q.Get("client_id"))
		redirectURI := strings.TrimSpace(q.Get("redirect_uri"))
		state := q.Get("state")
		challenge := q.Get("code_challenge")
		method := q.Get("code_challenge_method")

		if clientID == "" || redirectURI == "" {
			renderError(w, http.StatusBadRequest, "invalid_request",
				"client_id and redirect_uri are required")
			return
		}
		if state == "" {
			renderError(w, http.StatusBadRequest, "invalid_request", "state is required")
			return
		}
		if challenge == "" || method != "S256" {
			renderError(w, http.StatusBadRequest, "invalid_request",
				"PKCE code_challenge with method S256 is required")
			return
		}

		ctx := r.Context()
		cl, err := c.Store.GetClientByID(ctx, clientID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				renderError(w, http.StatusBadRequest, "unauthorized_client", "unknown client")
				return
			}
			logger.From(ctx).Error("client lookup failed", logger.Err(err), logger.ClientID(clientID))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}

		if err := checkClientOrigin(cl, r); err != nil {
			switch {
			case errors.Is(err, errOriginMissing):
				renderError(w, http.StatusBadRequest, "invalid_request", "missing origin")
			default:
				renderError(w, http.StatusForbidden, "access_denied", "origin not authorized for this client")
			}
			return
		}

		if !cl.AllowsRedirectURI(redirectURI) {
			renderError(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not registered for this client")
			return
		}

		scopes := validation.ParseScopes(q.Get("scope"))
		if bad := validation.InvalidScopes(scopes); len(bad) > 0 {
			renderError(w, http.StatusBadRequest, "invalid_scope",
				"malformed scope name: "+strings.Join(bad, " "))
			return
		}
		for _, s := range scopes {
			if !cl.AllowsScope(s) {
				renderError(w, http.StatusBadRequest, "invalid_scope",
					"scope not allowed for this client: "+s)
				return
			}
		}

		csrfToken, err := c.CSRF.Issue(ctx)
		if err != nil {
			logger.From(ctx).Error("csrf issue failed", logger.Err(err))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}

		templates.Render(w, http.StatusOK, "login.html", templates.LoginData{
			Title:               loginTitle,
			ClientName:          cl.Name,
			ClientID:            clientID,
			RedirectURI:         redirectURI,
			State:               state,
			Scope:               strings.Join(scopes, " "),
			CodeChallenge:       challenge,
			CodeChallengeMethod: method,
			CSRFToken:           csrfToken,
			AuthorizeQuery:      template.URL(r.URL.RawQuery),
		})
	}
}

// NewAuthorizePostHandler autentica al resource owner y emite el
// authorization code. Fallo de credenciales re-renderiza el form con
// mensaje uniforme, sin distinguir login desconocido de password malo.
func NewAuthorizePostHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		if err := r.ParseForm(); err != nil {
			renderError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
			return
		}

		login := strings.TrimSpace(r.PostForm.Get("login"))
		pass := r.PostForm.Get("password")
		clientID := strings.TrimSpace(r.PostForm.Get("client_id"))
		redirectURI := strings.TrimSpace(r.PostForm.Get("redirect_uri"))
		state := r.PostForm.Get("state")
		scope := strings.TrimSpace(r.PostForm.Get("scope"))
		challenge := r.PostForm.Get("code_challenge")
		method := r.PostForm.Get("code_challenge_method")
		csrfToken := r.PostForm.Get("csrf_token")

		if clientID == "" || redirectURI == "" || challenge == "" || method != "S256" {
			renderError(w, http.StatusBadRequest, "invalid_request", "missing authorization parameters")
			return
		}

		ctx := r.Context()
		cl, err := c.Store.GetClientByID(ctx, clientID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				renderError(w, http.StatusBadRequest, "unauthorized_client", "unknown client")
				return
			}
			logger.From(ctx).Error("client lookup failed", logger.Err(err), logger.ClientID(clientID))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}
		if !cl.AllowsRedirectURI(redirectURI) {
			renderError(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not registered for this client")
			return
		}

		scopes := validation.ParseScopes(scope)
		if bad := validation.InvalidScopes(scopes); len(bad) > 0 {
			renderError(w, http.StatusBadRequest, "invalid_scope",
				"malformed scope name: "+strings.Join(bad, " "))
			return
		}
		for _, s := range scopes {
			if !cl.AllowsScope(s) {
				renderError(w, http.StatusBadRequest, "invalid_scope", "scope not allowed for this client: "+s)
				return
			}
		}

		rerender := func(status int, msg string) {
			fresh, err := c.CSRF.Issue(ctx)
			if err != nil {
				logger.From(ctx).Error("csrf issue failed", logger.Err(err))
				renderError(w, http.StatusInternalServerError, "server_error", "")
				return
			}
			templates.Render(w, status, "login.html", templates.LoginData{
				Title:               loginTitle,
				ClientName:          cl.Name,
				ClientID:            clientID,
				RedirectURI:         redirectURI,
				State:               state,
				Scope:               strings.Join(scopes, " "),
				CodeChallenge:       challenge,
				CodeChallengeMethod: method,
				CSRFToken:           fresh,
				Error:               msg,
				Login:               login,
			})
		}

		if !c.CSRF.Consume(ctx, csrfToken) {
			rerender(http.StatusForbidden, "Your session expired. Please try again.")
			return
		}

		if login == "" || pass == "" {
			rerender(http.StatusBadRequest, "Login and password are required.")
			return
		}

		// Mensaje uniforme: no filtramos si el login existe.
		const badCreds = "Invalid login or password."

		u, err := c.Store.GetUserByLogin(ctx, login)
		if err != nil {
			if !errors.Is(err, core.ErrNotFound) {
				logger.From(ctx).Error("user lookup failed", logger.Err(err))
				renderError(w, http.StatusInternalServerError, "server_error", "")
				return
			}
			rerender(http.StatusUnauthorized, badCreds)
			return
		}
		if !c.Passwords.Verify(pass, u.PasswordHash) {
			rerender(http.StatusUnauthorized, badCreds)
			return
		}
		if !u.IsActive {
			rerender(http.StatusUnauthorized, badCreds)
			return
		}

		code, err := tokens.GenerateOpaqueToken(32)
		if err != nil {
			logger.From(ctx).Error("code generation failed", logger.Err(err))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}

		now := time.Now().UTC()
		ac := &core.AuthorizationCode{
			Code:                code,
			ClientID:            clientID,
			UserID:              u.ID,
			RedirectURI:         redirectURI,
			Scopes:              strings.Join(scopes, " "),
			CodeChallenge:       challenge,
			CodeChallengeMethod: method,
			ExpiresAt:           now.Add(core.AuthCodeTTL),
			CreatedAt:           now,
		}
		if err := c.Store.CreateAuthorizationCode(ctx, ac); err != nil {
			logger.From(ctx).Error("authorization code persist failed", logger.Err(err))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}

		// Best effort, el login ya fue exitoso.
		if err := c.Store.TouchLastLogin(ctx, u.ID, now); err != nil {
			logger.From(ctx).Warn("last_login_at update failed", logger.Err(err), logger.UserID(u.ID))
		}

		dest, err := url.Parse(redirectURI)
		if err != nil {
			renderError(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not a valid URL")
			return
		}
		qs := dest.Query()
		qs.Set("code", code)
		if state != "" {
			qs.Set("state", state)
		}
		dest.RawQuery = qs.Encode()

		logger.From(ctx).Info("authorization code issued",
			logger.ClientID(clientID), logger.UserID(u.ID), logger.Scope(ac.Scopes))
		http.Redirect(w, r, dest.String(), http.StatusFound)
	}
}

// renderError muestra la página de error del flujo browser-facing.
func renderError(w http.ResponseWriter, status int, code, desc string) {
	if desc == "" {
		desc = "The authorization server encountered an unexpected error."
	}
	templates.Render(w, status, "error.html", templates.ErrorData{
		Title:       "Error - OAuth2 Server",
		Code:        code,
		Description: desc,
	})
}
