package core

import "time"

// TTLs fijos del protocolo. No son configurables en runtime.
const (
	AuthCodeTTL     = 10 * time.Minute
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// Client es de solo lectura para los flujos del protocolo: se provisiona
// con `auth seed` (o a mano) y nunca se muta desde un handler.
type Client struct {
	ClientID          string    `json:"client_id"`
	ClientSecret      string    `json:"-"`
	Name              string    `json:"name"`
	RedirectURIs      []string  `json:"redirect_uris"`
	AllowedScopes     []string  `json:"allowed_scopes"`
	AuthorizedOrigins []string  `json:"authorized_origins"`
	CreatedAt         time.Time `json:"created_at"`
}

// AllowsRedirectURI reporta si uri está registrada para el client.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, ru := range c.RedirectURIs {
		if ru == uri {
			return true
		}
	}
	return false
}

// AllowsOrigin reporta si origin está en el set de orígenes autorizados.
func (c *Client) AllowsOrigin(origin string) bool {
	for _, o := range c.AuthorizedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// AllowsScope reporta si el scope está en la allow-list del client.
func (c *Client) AllowsScope(scope string) bool {
	for _, s := range c.AllowedScopes {
		if s == scope {
			return true
		}
	}
	return false
}

type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"`
	Country      *string `json:"country,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	Bio          *string `json:"bio,omitempty"`

	IsModerator bool `json:"is_moderator"`
	IsAdmin     bool `json:"is_admin"`
	IsActive    bool `json:"is_active"`
	IsMember    bool `json:"is_member"`
	IsVerified  bool `json:"is_verified"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// AuthorizationCode es de un solo uso: lo crea el grant issuer y lo consume
// (borra) el token exchange dentro de la misma transacción que crea el par
// access/refresh. Nunca se actualiza.
type AuthorizationCode struct {
	Code                string
	ClientID            string
	UserID              string
	RedirectURI         string
	Scopes              string // space-delimited, se arrastra verbatim
	CodeChallenge       string
	CodeChallengeMethod string // siempre "S256"
	ExpiresAt           time.Time
	CreatedAt           time.Time
}

// AccessToken es opaco y revocable: vive en la DB, no es un JWT.
type AccessToken struct {
	Token     string
	ClientID  string
	UserID    string
	Scopes    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RefreshToken nace apareado 1:1 con un AccessToken y muere junto a él,
// sea por rotación o por revocación.
type RefreshToken struct {
	Token       string
	AccessToken string // back-reference al AccessToken apareado
	ClientID    string
	UserID      string
	Scopes      string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
