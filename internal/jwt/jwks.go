package jwt

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
)

type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	KID string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWKSJSON serializa la clave pública como JSON Web Key Set. n y e van en
// base64url sin padding, bytes big-endian, como pide RFC 7518.
func (i *Issuer) JWKSJSON() []byte {
	pub := i.Keys.Public
	jwks := JWKS{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		KID: KID,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
	b, _ := json.Marshal(jwks)
	return b
}
