// Package templates embebe las páginas HTML del flujo de autorización.
package templates

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed *.html
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "*.html"))

// LoginData alimenta login.html. Los campos del query de /authorize se
// reinyectan como hidden fields para que el POST los devuelva.
type LoginData struct {
	Title               string
	ClientName          string
	ClientID            string
	RedirectURI         string
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	CSRFToken           string
	// Query original de /authorize, para el link a /register.
	AuthorizeQuery template.URL
	// Error uniforme de credenciales, vacío si no hubo intento.
	Error string
	// Login previo para repoblar el campo tras un fallo.
	Login string
}

// RegisterData alimenta register.html.
type RegisterData struct {
	Title     string
	CSRFToken string
	// Query de /authorize para continuar el flujo tras registrarse.
	AuthorizeQuery template.URL
	Errors         map[string]string
	Email          string
	Username       string
	Country        string
}

// ErrorData alimenta error.html.
type ErrorData struct {
	Title       string
	Code        string
	Description string
}

// SuccessData alimenta success.html (popup postMessage).
type SuccessData struct {
	Type  string
	Code  string
	Error string
	State string
}

func Render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = tmpl.ExecuteTemplate(w, name, data)
}
