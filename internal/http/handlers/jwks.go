package handlers

import (
	"net/http"
)

// NewJWKSHandler sirve el set de claves públicas para verificar los
// id_tokens. El documento se serializa una vez al armar el router.
func NewJWKSHandler(jwksJSON []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(jwksJSON)
	}
}
