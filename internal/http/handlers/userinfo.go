package handlers

import (
	"net/http"

	"github.com/sebastos1/auth/internal/app"
	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/http/middlewares"
)

type userInfoResponse struct {
	Sub         string  `json:"sub"`
	Email       *string `json:"email,omitempty"`
	Username    *string `json:"username,omitempty"`
	Country     *string `json:"country,omitempty"`
	IsAdmin     *bool   `json:"is_admin,omitempty"`
	IsModerator *bool   `json:"is_moderator,omitempty"`
	IsMember    *bool   `json:"is_member,omitempty"`
}

// NewUserInfoHandler atiende GET /userinfo. Corre detrás de
// RequireUser; los claims se recortan según los scopes del token.
func NewUserInfoHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		au := middlewares.GetAuthUser(r.Context())
		if au == nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token", httpx.CodeUserinfoBadToken)
			return
		}
		if !au.HasOpenID() {
			httpx.WriteError(w, http.StatusForbidden, "insufficient_scope",
				"openid scope is required for userinfo", httpx.CodeUserinfoNoOpenID)
			return
		}

		u := au.User
		resp := userInfoResponse{Sub: u.ID}
		if au.HasEmail() {
			resp.Email = &u.Email
		}
		if au.HasProfile() {
			resp.Username = &u.Username
			resp.Country = u.Country
		}
		if au.HasRoles() {
			resp.IsAdmin = &u.IsAdmin
			resp.IsModerator = &u.IsModerator
			resp.IsMember = &u.IsMember
		}

		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
