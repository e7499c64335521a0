package http

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCode        int    `json:"error_code,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// Códigos internos por familia:
// 1000s generales, 2200s token, 2300s revoke/userinfo/usuarios.
// El flujo browser-facing de /authorize responde HTML, sin envelope.
const (
	CodeInternal        = 1000
	CodeInvalidJSON     = 1102
	CodeUnauthenticated = 1200
	CodePanic           = 1500

	CodeTokenBadGrant     = 2200
	CodeTokenBadClient    = 2201
	CodeTokenBadCode      = 2202
	CodeTokenBadVerifier  = 2203
	CodeTokenBadRedirect  = 2204
	CodeTokenBadRefresh   = 2205
	CodeTokenMissingParam = 2206

	CodeRevokeBadClient   = 2300
	CodeUserinfoBadToken  = 2310
	CodeUserinfoNoOpenID  = 2311
	CodeRegisterConflict  = 2321
	CodeUpdateUserForbid  = 2330
	CodeUpdateUserMissing = 2331
)

// Descripciones RFC 6749 reutilizadas por los handlers de /token.
const (
	DescCodeConsumed     = "authorization code is invalid, expired, or already used"
	DescBadVerifier      = "PKCE verification failed"
	DescBadRefresh       = "refresh token is invalid, expired, or revoked"
	DescClientAuthFailed = "client authentication failed"
)

func WriteError(w http.ResponseWriter, status int, code, desc string, errCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rid := w.Header().Get("X-Request-ID")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{
		Error:            code,
		ErrorDescription: desc,
		ErrorCode:        errCode,
		RequestID:        rid,
	})
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteTokenError emite errores RFC 6749 para /token: invalid_client va
// con 401 y WWW-Authenticate, el resto con 400.
func WriteTokenError(w http.ResponseWriter, code, desc string, errCode int) {
	status := http.StatusBadRequest
	if code == "invalid_client" {
		status = http.StatusUnauthorized
		w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	WriteError(w, status, code, desc, errCode)
}
