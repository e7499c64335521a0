// Package jwt emite ID tokens OIDC firmados con RS256 y publica la clave
// de verificación como JWKS.
package jwt

import (
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/sebastos1/auth/internal/store/core"
)

// KID es el identificador de la única clave de firma publicada.
const KID = "main"

// Issuer firma ID tokens con la clave RSA del servidor.
type Issuer struct {
	Iss        string
	Keys       *Keys
	IDTokenTTL time.Duration // default 1h
}

func NewIssuer(iss string, keys *Keys) *Issuer {
	return &Issuer{Iss: iss, Keys: keys, IDTokenTTL: time.Hour}
}

// IssueIDToken emite un ID token para el usuario y el client dados.
// Los claims opcionales se deciden por scope: email con "email",
// username/country con "profile". Nada gateado por un scope ausente
// aparece en el token.
func (i *Issuer) IssueIDToken(u *core.User, clientID, scopes string) (string, error) {
	now := time.Now().UTC()
	exp := now.Add(i.IDTokenTTL)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": u.ID,
		"aud": clientID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}

	set := strings.Fields(scopes)
	has := func(want string) bool {
		for _, s := range set {
			if s == want {
				return true
			}
		}
		return false
	}

	if has("email") {
		claims["email"] = u.Email
	}
	if has("profile") {
		claims["username"] = u.Username
		if u.Country != nil {
			claims["country"] = *u.Country
		}
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = KID
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.Keys.Private)
}
