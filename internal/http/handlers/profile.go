package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sebastos1/auth/internal/app"
	httpx "github.com/sebastos1/auth/internal/http"
	"github.com/sebastos1/auth/internal/http/middlewares"
	"github.com/sebastos1/auth/internal/observability/logger"
	"github.com/sebastos1/auth/internal/store/core"
)

type updateUserRequest struct {
	UserID    string  `json:"user_id"`
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	Country   *string `json:"country"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
	// Solo admins pueden tocar estos flags.
	IsModerator *bool `json:"is_moderator"`
	IsAdmin     *bool `json:"is_admin"`
	IsActive    *bool `json:"is_active"`
}

type updateUserResponse struct {
	Success bool       `json:"success"`
	User    *core.User `json:"user"`
}

// NewUpdateUserHandler atiende PATCH /update/user. El caller solo
// puede editarse a sí mismo salvo que sea admin; los flags de rol los
// ignoramos silenciosamente para no-admins.
func NewUpdateUserHandler(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		au := middlewares.GetAuthUser(r.Context())
		if au == nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token", httpx.CodeUserinfoBadToken)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		var req updateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", httpx.CodeInvalidJSON)
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "user_id is required", httpx.CodeUpdateUserMissing)
			return
		}

		if req.UserID != au.User.ID && !au.User.IsAdmin {
			httpx.WriteError(w, http.StatusForbidden, "forbidden",
				"insufficient permissions to update this user", httpx.CodeUpdateUserForbid)
			return
		}

		ctx := r.Context()
		u, err := c.Store.GetUserByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found", httpx.CodeUpdateUserMissing)
				return
			}
			logger.From(ctx).Error("user lookup failed", logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "", httpx.CodeInternal)
			return
		}

		if req.Email != nil {
			u.Email = strings.TrimSpace(strings.ToLower(*req.Email))
		}
		if req.Username != nil {
			u.Username = *req.Username
		}
		if req.Country != nil {
			u.Country = req.Country
		}
		if req.AvatarURL != nil {
			u.AvatarURL = req.AvatarURL
		}
		if req.Bio != nil {
			u.Bio = req.Bio
		}
		if au.User.IsAdmin {
			if req.IsModerator != nil {
				u.IsModerator = *req.IsModerator
			}
			if req.IsAdmin != nil {
				u.IsAdmin = *req.IsAdmin
			}
			if req.IsActive != nil {
				u.IsActive = *req.IsActive
			}
		}
		u.UpdatedAt = time.Now().UTC()

		if err := c.Store.UpdateUser(ctx, u); err != nil {
			if errors.Is(err, core.ErrConflict) {
				httpx.WriteError(w, http.StatusConflict, "conflict",
					"email or username already in use", httpx.CodeRegisterConflict)
				return
			}
			logger.From(ctx).Error("user update failed", logger.Err(err), logger.UserID(u.ID))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "", httpx.CodeInternal)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, updateUserResponse{Success: true, User: u})
	}
}
