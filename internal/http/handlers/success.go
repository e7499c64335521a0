package handlers

import (
	"net/http"

	"github.com/sebastos1/auth/internal/http/templates"
)

// NewSuccessHandler atiende GET /success: la página destino del popup
// de autorización, que le pasa code/error/state a la ventana que lo
// abrió vía postMessage y se cierra.
func NewSuccessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		msgType := "AUTH_ERROR"
		if q.Get("code") != "" {
			msgType = "AUTH_SUCCESS"
		}

		templates.Render(w, http.StatusOK, "success.html", templates.SuccessData{
			Type:  msgType,
			Code:  q.Get("code"),
			Error: q.Get("error"),
			State: q.Get("state"),
		})
	}
}
