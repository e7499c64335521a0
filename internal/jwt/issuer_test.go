package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sebastos1/auth/internal/store/core"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewIssuer("https://auth.example.test", &Keys{Private: key, Public: &key.PublicKey})
}

func testUser() *core.User {
	country := "NO"
	return &core.User{
		ID:       "8b9f2f1e-0000-4000-8000-000000000001",
		Email:    "ola@example.test",
		Username: "ola",
		Country:  &country,
	}
}

func parseClaims(t *testing.T, i *Issuer, raw string) jwtv5.MapClaims {
	t.Helper()
	parsed, err := jwtv5.Parse(raw, func(tk *jwtv5.Token) (any, error) {
		return i.Keys.Public, nil
	}, jwtv5.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, KID, parsed.Header["kid"])
	claims, ok := parsed.Claims.(jwtv5.MapClaims)
	require.True(t, ok)
	return claims
}

func TestIssueIDToken_ProfileOnly(t *testing.T) {
	i := testIssuer(t)
	raw, err := i.IssueIDToken(testUser(), "sjallabong-main", "openid profile")
	require.NoError(t, err)

	claims := parseClaims(t, i, raw)
	require.Equal(t, "https://auth.example.test", claims["iss"])
	require.Equal(t, "8b9f2f1e-0000-4000-8000-000000000001", claims["sub"])
	require.Equal(t, "sjallabong-main", claims["aud"])
	require.Equal(t, "ola", claims["username"])
	require.Equal(t, "NO", claims["country"])
	require.NotContains(t, claims, "email")
}

func TestIssueIDToken_EmailOnly(t *testing.T) {
	i := testIssuer(t)
	raw, err := i.IssueIDToken(testUser(), "sjallabong-main", "openid email")
	require.NoError(t, err)

	claims := parseClaims(t, i, raw)
	require.Equal(t, "ola@example.test", claims["email"])
	require.NotContains(t, claims, "username")
	require.NotContains(t, claims, "country")
}

func TestIssueIDToken_NilCountryOmitted(t *testing.T) {
	i := testIssuer(t)
	u := testUser()
	u.Country = nil

	raw, err := i.IssueIDToken(u, "c", "openid profile")
	require.NoError(t, err)

	claims := parseClaims(t, i, raw)
	require.Equal(t, "ola", claims["username"])
	require.NotContains(t, claims, "country")
}

func TestIssueIDToken_Expiry(t *testing.T) {
	i := testIssuer(t)
	i.IDTokenTTL = 30 * time.Minute

	raw, err := i.IssueIDToken(testUser(), "c", "openid")
	require.NoError(t, err)

	claims := parseClaims(t, i, raw)
	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	require.Equal(t, int64(1800), exp-iat)
}

func TestJWKSJSON_RoundTrip(t *testing.T) {
	i := testIssuer(t)

	var jwks JWKS
	require.NoError(t, json.Unmarshal(i.JWKSJSON(), &jwks))
	require.Len(t, jwks.Keys, 1)

	k := jwks.Keys[0]
	require.Equal(t, "RSA", k.Kty)
	require.Equal(t, "sig", k.Use)
	require.Equal(t, "RS256", k.Alg)
	require.Equal(t, KID, k.KID)

	// Reconstruir la clave pública desde n/e y comparar.
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	require.NoError(t, err)
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	require.NoError(t, err)

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	require.Zero(t, n.Cmp(i.Keys.Public.N))
	require.Equal(t, int64(i.Keys.Public.E), e.Int64())
}
