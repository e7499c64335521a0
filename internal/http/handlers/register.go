package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sebastos1/auth/internal/app"
	"github.com/sebastos1/auth/internal/http/templates"
	"github.com/sebastos1/auth/internal/observability/logger"
	"github.com/sebastos1/auth/internal/store/core"
)

const registerTitle = "Create account - OAuth2 Server"

// NewRegisterGetHandler renderiza el form de alta. El query de
// /authorize viaja en el action para retomar el flujo OAuth después.
func NewRegisterGetHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		csrfToken, err := c.CSRF.Issue(r.Context())
		if err != nil {
			logger.From(r.Context()).Error("csrf issue failed", logger.Err(err))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}
		templates.Render(w, http.StatusOK, "register.html", templates.RegisterData{
			Title:          registerTitle,
			CSRFToken:      csrfToken,
			AuthorizeQuery: template.URL(r.URL.RawQuery),
			Errors:         map[string]string{},
		})
	}
}

// NewRegisterPostHandler crea el usuario y redirige a /authorize con
// el query original para que inicie sesión.
func NewRegisterPostHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		if err := r.ParseForm(); err != nil {
			renderError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
			return
		}

		email := strings.TrimSpace(strings.ToLower(r.PostForm.Get("email")))
		username := r.PostForm.Get("username")
		pass := r.PostForm.Get("password")
		country := strings.TrimSpace(r.PostForm.Get("country"))
		csrfToken := r.PostForm.Get("csrf_token")

		ctx := r.Context()
		rerender := func(status int, fieldErrs map[string]string) {
			fresh, err := c.CSRF.Issue(ctx)
			if err != nil {
				logger.From(ctx).Error("csrf issue failed", logger.Err(err))
				renderError(w, http.StatusInternalServerError, "server_error", "")
				return
			}
			templates.Render(w, status, "register.html", templates.RegisterData{
				Title:          registerTitle,
				CSRFToken:      fresh,
				AuthorizeQuery: template.URL(r.URL.RawQuery),
				Errors:         fieldErrs,
				Email:          email,
				Username:       username,
				Country:        country,
			})
		}

		if !c.CSRF.Consume(ctx, csrfToken) {
			rerender(http.StatusForbidden, map[string]string{
				"email": "Your session expired. Please try again.",
			})
			return
		}

		fieldErrs := validateRegistration(email, username, pass)
		if len(fieldErrs) > 0 {
			rerender(http.StatusBadRequest, fieldErrs)
			return
		}

		hash, err := c.Passwords.Hash(pass)
		if err != nil {
			logger.From(ctx).Error("password hashing failed", logger.Err(err))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}

		now := time.Now().UTC()
		u := &core.User{
			ID:           uuid.NewString(),
			Email:        email,
			Username:     strings.TrimSpace(username),
			PasswordHash: hash,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if country != "" {
			u.Country = &country
		}

		if err := c.Store.CreateUser(ctx, u); err != nil {
			if errors.Is(err, core.ErrConflict) {
				rerender(http.StatusConflict, map[string]string{
					"email": "An account with this email or username already exists.",
				})
				return
			}
			logger.From(ctx).Error("user creation failed", logger.Err(err))
			renderError(w, http.StatusInternalServerError, "server_error", "")
			return
		}

		logger.From(ctx).Info("user registered", logger.UserID(u.ID))

		dest := "/authorize"
		if r.URL.RawQuery != "" {
			dest += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, dest, http.StatusFound)
	}
}

func validateRegistration(email, username, pass string) map[string]string {
	errs := map[string]string{}

	if email == "" || !strings.Contains(email, "@") {
		errs["email"] = "Please enter a valid email address"
	}

	if strings.TrimSpace(username) != username {
		errs["username"] = "Username cannot start or end with spaces"
	}
	trimmed := strings.TrimSpace(username)
	if strings.Contains(trimmed, "  ") {
		errs["username"] = "Username cannot contain consecutive spaces"
	}
	for _, c := range trimmed {
		if !isUsernameRune(c) {
			errs["username"] = "Something not allowed in username"
			break
		}
	}
	if len(trimmed) < 3 || len(trimmed) > 24 {
		errs["username"] = "Username must be 3-24 characters"
	}

	if len(pass) < 6 || len(pass) > 128 {
		errs["password"] = "Password must be 6+ characters long"
	}

	return errs
}

func isUsernameRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == ' ', c == '\'':
		return true
	}
	return false
}
