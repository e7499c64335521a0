package core

import (
	"context"
	"time"
)

// Repository abstrae la persistencia de credenciales. Los getters de codes
// y tokens filtran por expiración al momento de la lectura (expires_at > now):
// una fila expirada se reporta como ErrNotFound pero no se purga.
//
// Las operaciones compuestas (Redeem*, Rotate*, Revoke*) ejecutan todas sus
// mutaciones dentro de UNA transacción. El delete de la fila consumida es la
// primera sentencia: si afecta cero filas (otra request la consumió antes),
// la operación aborta con ErrNotFound y nada queda a medias.
type Repository interface {
	Ping(ctx context.Context) error

	// Clients
	GetClientByID(ctx context.Context, clientID string) (*Client, error)
	CreateClient(ctx context.Context, c *Client) error

	// Users
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error) // email o username
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error

	// Authorization codes
	CreateAuthorizationCode(ctx context.Context, ac *AuthorizationCode) error
	GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// Tokens
	GetAccessToken(ctx context.Context, token string) (*AccessToken, error)
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)

	// RedeemAuthorizationCode borra el code e inserta el par access/refresh,
	// todo o nada. ErrNotFound si el code ya fue consumido.
	RedeemAuthorizationCode(ctx context.Context, code string, at *AccessToken, rt *RefreshToken) error

	// RotateRefreshToken borra el refresh viejo y su access apareado, e
	// inserta el par nuevo. ErrNotFound si el refresh ya fue rotado.
	RotateRefreshToken(ctx context.Context, old *RefreshToken, at *AccessToken, rt *RefreshToken) error

	// RevokeAccessToken borra el access token (si pertenece a clientID) y
	// cascadea al refresh que lo referencia. Retorna false si no había nada
	// que borrar o el dueño no coincide; eso NO es un error para el caller.
	RevokeAccessToken(ctx context.Context, token, clientID string) (bool, error)

	// RevokeRefreshToken borra el refresh token (si pertenece a clientID) y
	// su access apareado.
	RevokeRefreshToken(ctx context.Context, token, clientID string) (bool, error)
}
