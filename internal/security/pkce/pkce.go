// Package pkce implementa la verificación S256 de RFC 7636.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// ChallengeS256 deriva el code_challenge de un verifier:
// base64url(SHA-256(verifier)) sin padding.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyS256 compara en tiempo constante el challenge derivado del verifier
// contra el challenge almacenado. Igualdad byte a byte, sin case folding.
func VerifyS256(verifier, challenge string) bool {
	derived := ChallengeS256(verifier)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) == 1
}
